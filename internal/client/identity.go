package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gitbounty-lab/backend/pkg/api"
)

// ErrIdentityNotFound means the platform does not know the login. The
// lookup may also fail transiently, which is reported as a plain error.
var ErrIdentityNotFound = errors.New("identity not found")

type IdentityUser struct {
	ExternalID string
	Login      string
	Name       string
	AvatarURL  string
}

type IdentityCaller interface {
	GetUser(ctx context.Context, login string) (*IdentityUser, error)
}

type githubIdentityCaller struct {
	generator api.Generator
	token     string
}

func NewGithubIdentityCaller(endpoint, token string) *githubIdentityCaller {
	return &githubIdentityCaller{
		generator: api.NewGenerator(endpoint),
		token:     token,
	}
}

func (c *githubIdentityCaller) GetUser(ctx context.Context, login string) (*IdentityUser, error) {
	client := c.generator.New("/users/%s", login).
		Header("Accept", "application/vnd.github+json")
	if c.token != "" {
		client = client.Header("Authorization", "Bearer "+c.token)
	}

	resp, err := client.GET(ctx)
	if err != nil {
		return nil, err
	}

	if resp.Code == http.StatusNotFound {
		return nil, ErrIdentityNotFound
	}

	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("identity lookup failed with status %d", resp.Code)
	}

	body, err := resp.JSON()
	if err != nil {
		return nil, err
	}

	canonicalLogin, err := body.GetString("login")
	if err != nil {
		return nil, err
	}

	name, _ := body.GetString("name")
	avatar, _ := body.GetString("avatar_url")

	return &IdentityUser{
		ExternalID: canonicalLogin,
		Login:      canonicalLogin,
		Name:       name,
		AvatarURL:  avatar,
	}, nil
}
