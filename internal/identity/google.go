package identity

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Session keys used by the Google provider.
const (
	sessionUserID   = "user_id"
	sessionUserName = "user_name"
	sessionState    = "oauth_state"
	sessionReturn   = "oauth_return"
)

// googleUserInfo is the subset of the userinfo endpoint response we need.
type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider authenticates users through Google OAuth and keeps the
// resolved identity in the cookie session.
type GoogleProvider struct {
	oauth *oauth2.Config
}

func NewGoogle(clientID, clientSecret, siteURL string) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  siteURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (g *GoogleProvider) CurrentUser(c *gin.Context) (User, bool) {
	session := sessions.Default(c)
	id, ok := session.Get(sessionUserID).(string)
	if !ok || id == "" {
		return User{}, false
	}
	name, _ := session.Get(sessionUserName).(string)
	return User{ID: id, DisplayName: name}, true
}

func (g *GoogleProvider) LoginURL(returnPath string) string {
	if returnPath == "" {
		returnPath = "/"
	}
	return "/auth/google/login?return=" + url.QueryEscape(returnPath)
}

// Routes mounts the login, callback and logout endpoints.
func (g *GoogleProvider) Routes(r *gin.Engine) {
	r.GET("/auth/google/login", g.login)
	r.GET("/auth/google/callback", g.callback)
	r.GET("/logout", g.logout)
}

func (g *GoogleProvider) login(c *gin.Context) {
	state, err := stateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "errorMessage": "failed to generate state token"})
		return
	}

	// State lives in the session for callback verification.
	session := sessions.Default(c)
	session.Set(sessionState, state)
	if ret := c.Query("return"); ret != "" {
		session.Set(sessionReturn, ret)
	}
	session.Save()

	c.Redirect(http.StatusTemporaryRedirect, g.oauth.AuthCodeURL(state))
}

func (g *GoogleProvider) callback(c *gin.Context) {
	session := sessions.Default(c)

	saved, _ := session.Get(sessionState).(string)
	if saved == "" || c.Query("state") != saved {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "errorMessage": "invalid oauth state"})
		return
	}
	session.Delete(sessionState)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "errorMessage": "missing authorization code"})
		return
	}

	token, err := g.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		logrus.WithError(err).Error("oauth code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": true, "errorMessage": "code exchange failed"})
		return
	}

	info, err := g.fetchUserInfo(c, token)
	if err != nil {
		logrus.WithError(err).Error("fetching google user info failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": true, "errorMessage": "failed to fetch user info"})
		return
	}

	session.Set(sessionUserID, "google:"+info.ID)
	session.Set(sessionUserName, info.Name)
	returnPath, _ := session.Get(sessionReturn).(string)
	session.Delete(sessionReturn)
	session.Save()

	if returnPath == "" {
		returnPath = "/"
	}
	c.Redirect(http.StatusFound, returnPath)
}

func (g *GoogleProvider) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (g *GoogleProvider) fetchUserInfo(c *gin.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := g.oauth.Client(c.Request.Context(), token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func stateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
