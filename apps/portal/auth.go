package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/user"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flags("login")
	uname := fs.String("username", "", "username or email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}

	usr, err := cli.session.Login(ctx, *uname, pwd)
	if err != nil {
		return err
	}
	cli.done("Welcome back, %s!", usr.Username)
	return nil
}

func (cli *commandLine) register(ctx context.Context, args []string) error {
	fs := cli.flags("register")
	uname := fs.String("username", "", "username (letters, digits and underscores)")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uname == "" || *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}

	usr, err := cli.session.Register(ctx, user.NewUser{Username: *uname, Email: *email, Password: pwd})
	if err != nil {
		return err
	}
	cli.done("Welcome, %s! Your account is ready.", usr.Username)
	return nil
}

func (cli *commandLine) logout(context.Context, []string) error {
	if err := cli.session.Logout(); err != nil {
		return err
	}
	cli.done("Logged out.")
	return nil
}

func (cli *commandLine) me(ctx context.Context, _ []string) error {
	if _, err := cli.requireUser(); err != nil {
		return err
	}
	usr, err := cli.session.RefreshUser(ctx)
	if err != nil {
		return err
	}

	cli.fields(
		"Username", usr.Username,
		"Email", usr.Email,
		"Role", usr.Role,
		"Member since", fmtTime(usr.CreatedAt),
		"Last login", fmtTime(usr.LastLogin),
		"Skills offered", strconv.Itoa(len(usr.SkillsOffered)),
		"Average rating", fmtRating(usr.AverageRating),
	)
	return nil
}

func (cli *commandLine) password(ctx context.Context, args []string) error {
	act, args := action(args, "")
	switch act {
	case "reset":
		fs := cli.flags("password reset")
		email := fs.String("email", "", "account email")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		msg, err := cli.session.Client().RequestPasswordReset(ctx, *email)
		if err != nil {
			return err
		}
		cli.done(msg)
		return nil

	case "confirm":
		fs := cli.flags("password confirm")
		uid := fs.String("uid", "", "uid from the reset link")
		token := fs.String("token", "", "token from the reset link")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *uid == "" || *token == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		msg, err := cli.session.Client().ConfirmPasswordReset(ctx, user.ResetUserPassword{
			UID: *uid, Token: *token, Password: pwd, PasswordConfirm: pwd,
		})
		if err != nil {
			return err
		}
		cli.done(msg)
		return nil

	default:
		return cli.unknownAction("password", act, "reset", "confirm")
	}
}

func (cli *commandLine) users(ctx context.Context, args []string) error {
	if _, err := cli.requireAdmin(); err != nil {
		return err
	}
	fs := cli.flags("users")
	var q client.UserQuery
	var active optionalBool
	fs.StringVar(&q.Search, "search", "", "username or email contains")
	fs.StringVar(&q.Role, "role", "", strings.Join(user.AllRoles, "|"))
	fs.Var(&active, "active", "true|false")
	fs.StringVar(&q.Ordering, "ordering", "", "e.g. -lastLogin,username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	q.IsActive = active.val

	users, err := cli.session.Client().Users(ctx, q)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Username, u.Email, u.Role, fmt.Sprint(u.IsActive), fmtTime(u.LastLogin)})
	}
	cli.table([]string{"USERNAME", "EMAIL", "ROLE", "ACTIVE", "LAST LOGIN"}, rows)
	return nil
}
