package admin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

var (
	ErrPasswordMismatch = errors.New("passwords didn't match")
	ErrBlankField       = errors.New("this field cannot be blank")
)

type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, email, password string) (*models.User, error)
}

// CreateSuperuser prompts for an email and a password (twice) and stores a
// staff superuser through svc.
func CreateSuperuser(ctx context.Context, reader *bufio.Reader, w io.Writer, svc SuperuserCreator) (*models.User, error) {
	email, err := GetSimpleText(reader, "Email address", w)
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, fmt.Errorf("email: %w", ErrBlankField)
	}

	password, err := GetPassword("Password", w)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(password)

	if len(password) == 0 {
		return nil, fmt.Errorf("password: %w", ErrBlankField)
	}

	again, err := GetPassword("Password (again)", w)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(password, again) {
		return nil, ErrPasswordMismatch
	}

	user, err := svc.CreateSuperuser(ctx, email, string(password))
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			return nil, errors.New(formatValidation(verr))
		}
		return nil, err
	}

	fmt.Fprintln(w, "Superuser created successfully.")
	return user, nil
}

func formatValidation(v *common.ValidationError) string {
	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var buf bytes.Buffer
	for i, f := range fields {
		if i > 0 {
			buf.WriteString("; ")
		}
		for j, msg := range v.Fields[f] {
			if j > 0 {
				buf.WriteString(" ")
			}
			fmt.Fprintf(&buf, "%s: %s", f, msg)
		}
	}
	return buf.String()
}
