// Package cli implements an interactive smoke client for the authgate
// server: register, sign in, rotate, and inspect tokens from a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/client/api"
	"github.com/dmitrijs2005/authgate/internal/client/config"
)

type App struct {
	config       *config.Config
	api          *api.Client
	reader       *bufio.Reader
	userName     string
	accessToken  string
	refreshToken string
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerEndpointAddr),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.accessToken != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Run(ctx context.Context) {

	log.Println("Welcome to authgate CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("ag %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: refresh, me, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, exit")
			}

		case "register":
			a.register(ctx)
		case "login":
			a.login(ctx)
		case "refresh":
			a.refresh(ctx)
		case "me":
			a.me(ctx)
		case "logout":
			a.logout()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}

func (a *App) register(ctx context.Context) {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	nickname, err := GetSimpleText(a.reader, "Enter nickname", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	password, err := GetPassword("Enter password", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	passwordConfirm, err := GetPassword("Confirm password", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	pair, err := a.api.SignupCredentials(ctx, email, password, passwordConfirm, nickname)
	if err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return
	}

	a.userName = email
	a.accessToken = pair.AccessToken
	a.refreshToken = pair.RefreshToken
	log.Printf("Registration successful")
}

func (a *App) login(ctx context.Context) {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	password, err := GetPassword("Enter password", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	res, err := a.api.SignInCredentials(ctx, email, password)
	if err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return
	}

	a.userName = email
	a.accessToken = res.AccessToken
	a.refreshToken = res.RefreshToken
	log.Printf("Login successful")
}

func (a *App) refresh(ctx context.Context) {
	if a.refreshToken == "" {
		fmt.Println("Not logged in")
		return
	}

	pair, err := a.api.Refresh(ctx, a.refreshToken)
	if err != nil {
		log.Printf("Refresh unsuccessful: %s", err.Error())
		return
	}

	a.accessToken = pair.AccessToken
	a.refreshToken = pair.RefreshToken
	log.Printf("Tokens rotated")
}

func (a *App) me(ctx context.Context) {
	if !a.isLoggedIn() {
		fmt.Println("Not logged in")
		return
	}

	identity, err := a.api.Me(ctx, a.accessToken)
	if err != nil {
		log.Printf("error: %s", err.Error())
		return
	}

	fmt.Printf("userId: %s\n", identity.UserID)
	if identity.FirstName != "" || identity.LastName != "" {
		fmt.Printf("name: %s %s\n", identity.FirstName, identity.LastName)
	}
}

func (a *App) logout() {
	a.userName = ""
	a.accessToken = ""
	a.refreshToken = ""
	log.Printf("Logged out")
}
