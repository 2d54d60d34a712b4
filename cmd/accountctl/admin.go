package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

// readPassword is swapped in tests so prompts never touch the terminal.
var readPassword = term.ReadPassword

type accountAdmin interface {
	Register(ctx context.Context, in usecase.RegisterInput) (domain.Account, error)
	Disable(ctx context.Context, actorID, accountID string) (domain.Account, error)
}

const operatorActor = "accountctl"

func prompt(reader *bufio.Reader, label string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, label+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, label+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func createAdmin(ctx context.Context, accounts accountAdmin, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	email, err := prompt(reader, "Email", out)
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	first, err := prompt(reader, "First name", out)
	if err != nil {
		return fmt.Errorf("read first name: %w", err)
	}
	last, err := prompt(reader, "Last name", out)
	if err != nil {
		return fmt.Errorf("read last name: %w", err)
	}

	password, err := promptPassword("Password", out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Repeat password", out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	account, err := accounts.Register(ctx, usecase.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: first,
		LastName:  last,
		Role:      domain.RoleAdmin,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				fmt.Fprintf(out, "  %s: %s\n", f.Field, f.Message)
			}
		}
		return fmt.Errorf("register admin: %w", err)
	}

	fmt.Fprintf(out, "created admin %s (%s)\n", account.ID, account.Email)
	return nil
}

func disable(ctx context.Context, accounts accountAdmin, id string, out io.Writer) error {
	account, err := accounts.Disable(ctx, operatorActor, id)
	if err != nil {
		return fmt.Errorf("disable %s: %w", id, err)
	}
	fmt.Fprintf(out, "disabled %s (%s)\n", account.ID, account.Email)
	return nil
}
