package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"memvoice/internal/app/server"
	"memvoice/internal/domain/user"
)

var (
	suEmail    string
	suUsername string
	suFullName string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Создать администратора",
	Long: `Создаёт активного пользователя с правами superuser.
Пароль запрашивается с терминала без эха; без терминала читается первая строка stdin.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if suEmail == "" || suUsername == "" {
			return fmt.Errorf("нужны флаги --email и --username")
		}

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		app, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("ошибка инициализации приложения: %w", err)
		}
		defer app.Close()

		in := user.CreateInput{
			Email:       suEmail,
			Username:    suUsername,
			Password:    password,
			IsActive:    true,
			IsSuperuser: true,
		}
		if suFullName != "" {
			in.FullName = &suFullName
		}

		u, err := app.Users.Create(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("ошибка создания пользователя: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Суперпользователь %s создан (id %d)\n", u.Username, u.ID)
		return nil
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readLine(in)
	}

	out := cmd.ErrOrStderr()
	fmt.Fprint(out, "Пароль: ")
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}

	fmt.Fprint(out, "Повторите пароль: ")
	confirm, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("пароли не совпадают")
	}
	return string(password), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	createSuperuserCmd.Flags().StringVar(&suEmail, "email", "", "email администратора")
	createSuperuserCmd.Flags().StringVar(&suUsername, "username", "", "логин администратора")
	createSuperuserCmd.Flags().StringVar(&suFullName, "full-name", "", "полное имя")
}
