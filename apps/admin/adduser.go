package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/user"
)

// addUser updates or creates an active user.User with the given role and password.
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	exists := err == nil
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{Email: email, CreatedAt: time.Now().UTC()}
	}

	usr.Name = name
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
