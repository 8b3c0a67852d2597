package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

// addUser updates or creates an active user.User. Existing users are matched on username or email.
func (cli *commandLine) addUser(ctx context.Context, uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	role := user.RoleStudent
	if isAdmin {
		role = user.RoleAdmin
	}
	nu := user.NewUser{Username: uname, Email: email, Password: pwd, Role: role}
	if err := cli.validate.Struct(nu); err != nil {
		return cli.validationError(err)
	}

	usr, err := cli.findUser(ctx, uname, email)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	created := usr.ID == ""
	if created {
		usr = user.User{Username: uname, Email: email, CreatedAt: now}
	}
	if isAdmin || created {
		usr.Role = role
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if created {
		usr, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		usr, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	if err != nil {
		return err
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	fmt.Fprintf(cli.out, "user %s %s (%s)\n", usr.Username, verb, usr.Role)
	return nil
}

// findUser returns the user with uname or email, or a zero User if there is none.
func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	for _, filter := range []user.GetFilter{{Username: uname}, {Email: email}} {
		usr, err := cli.usrRepo.GetUser(ctx, filter)
		if err == nil {
			return usr, nil
		}
		if !core.IsNotFound(err) {
			return user.User{}, err
		}
	}
	return user.User{}, nil
}
