package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
	if err != nil {
		return err
	}
	if err = cli.validate.Struct(user.ResetUserPassword{UID: user.EncodeUID(usr), Token: "-", Password: pwd, PasswordConfirm: pwd}); err != nil {
		return cli.validationError(err)
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s reset\n", usr.Username)
	return nil
}
