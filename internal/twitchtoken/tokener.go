package twitchtoken

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nantokaworks/spinwheel/internal/env"
	"github.com/nantokaworks/spinwheel/internal/localdb"
)

var scopes = []string{
	"user:read:chat",
	"user:write:chat",
	"chat:read",
	"chat:edit",
	"moderator:read:followers",
}

// Token is a stored Twitch OAuth token.
type Token struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    int64
}

// SaveToken persists the token, replacing any previous one.
func (t *Token) SaveToken() error {
	return localdb.SaveToken(localdb.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Scope:        t.Scope,
		ExpiresAt:    t.ExpiresAt,
	})
}

// GetLatestToken loads the stored token.
// 戻り値: (token, isValid, error)
func GetLatestToken() (Token, bool, error) {
	stored, err := localdb.GetLatestToken()
	if err != nil {
		return Token{}, false, err
	}

	token := Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Scope:        stored.Scope,
		ExpiresAt:    stored.ExpiresAt,
	}

	// 期限の60秒前から無効扱いにする
	isValid := token.AccessToken != "" && token.ExpiresAt > time.Now().Unix()+60
	return token, isValid, nil
}

func GetTwitchToken(code string) (map[string]interface{}, error) {
	redirectURI := getCallbackURL()

	resp, err := http.PostForm("https://id.twitch.tv/oauth2/token", url.Values{
		"client_id":     {env.Value.ClientID},
		"client_secret": {env.Value.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	// エラーチェック
	if errorMsg, ok := result["error"]; ok {
		return nil, fmt.Errorf("Twitch API error: %v, description: %v", errorMsg, result["error_description"])
	}

	if _, ok := result["access_token"]; !ok {
		return nil, fmt.Errorf("access_token not found in response, got: %v", result)
	}
	result["scope"] = strings.Join(scopes, " ")
	return result, nil
}

// GetOrRefreshToken は有効なトークンを取得するか、無効な場合はリフレッシュを試みます
// 戻り値: (token, isValid, error)
func GetOrRefreshToken() (Token, bool, error) {
	token, isValid, err := GetLatestToken()
	if err != nil {
		return Token{}, false, err
	}

	if isValid {
		return token, true, nil
	}

	// リフレッシュトークンがない場合は再認証が必要
	if token.RefreshToken == "" {
		return token, false, nil
	}

	if err := token.RefreshTwitchToken(); err != nil {
		return token, false, err
	}

	return GetLatestToken()
}

func (t *Token) RefreshTwitchToken() error {
	resp, err := http.PostForm("https://id.twitch.tv/oauth2/token", url.Values{
		"client_id":     {env.Value.ClientID},
		"client_secret": {env.Value.ClientSecret},
		"refresh_token": {t.RefreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	var accessToken string
	if v, ok := result["access_token"]; !ok {
		return errors.New("access_token not found in response")
	} else {
		accessToken = v.(string)
	}

	var refreshToken string
	if v, ok := result["refresh_token"]; !ok {
		return errors.New("refresh_token not found in response")
	} else {
		refreshToken = v.(string)
	}

	var scope string
	if v, ok := result["scope"].([]interface{}); !ok {
		return errors.New("scope not found in response")
	} else {
		parts := make([]string, 0)
		for _, s := range v {
			if str, ok := s.(string); ok {
				parts = append(parts, str)
			}
		}
		scope = strings.Join(parts, " ")
	}
	if _, ok := result["expires_in"]; !ok {
		return errors.New("expires_in not found in response")
	}

	t.AccessToken = accessToken
	t.RefreshToken = refreshToken
	t.Scope = scope
	t.ExpiresAt = time.Now().Unix() + int64(result["expires_in"].(float64))
	return t.SaveToken()
}

// getCallbackURL はコールバックURLを生成します
func getCallbackURL() string {
	if env.Value.CallbackURL != "" {
		return env.Value.CallbackURL
	}

	port := 3001
	if env.Value.ServerPort != 0 {
		port = env.Value.ServerPort
	}
	return fmt.Sprintf("http://localhost:%d/callback", port)
}

func GetAuthURL() string {
	redirectURI := getCallbackURL()
	return fmt.Sprintf(
		"https://id.twitch.tv/oauth2/authorize?response_type=code&client_id=%s&redirect_uri=%s&scope=%s",
		url.QueryEscape(env.Value.ClientID),
		url.QueryEscape(redirectURI),
		url.QueryEscape(strings.Join(scopes, " ")),
	)
}
