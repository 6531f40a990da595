// Command coursemarket is a terminal client for the course marketplace API.
// The login credential is kept in the user's config directory between runs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"coursemarket/internal/client"
	"coursemarket/internal/models"
)

const usage = `usage: coursemarket [-api URL] [-credentials FILE] <command> [args]

commands:
  register <name> <email> <password>
  login <email> <password>
  logout
  whoami
  health
  courses
  course <id>
  buy <courseId>
  review <courseId> <rating> [text...]
  reviews [courseId]
  purchases                                   (admin)
  users                                       (admin)
  moderate purchase|review <id> approved|rejected   (admin)
  delete purchase|review <id>                 (admin)
`

var errUsage = errors.New("invalid usage")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "not logged in, run: coursemarket login <email> <password>")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("coursemarket", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("api", envOr("COURSEMARKET_API_URL", "http://localhost:3000"), "API base URL")
	credPath := fs.String("credentials", "", "credential file (default: user config dir)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	path := *credPath
	if path == "" {
		var err error
		if path, err = client.DefaultCredentialPath(); err != nil {
			return fmt.Errorf("locate credential file: %w", err)
		}
	}
	c := client.New(strings.TrimRight(*apiURL, "/"), client.NewFileStore(path))

	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}
	cmd, rest := rest[0], rest[1:]
	out := jsonPrinter(stdout)

	switch cmd {
	case "register":
		if len(rest) != 3 {
			return errUsage
		}
		user, err := c.Register(ctx, rest[0], rest[1], rest[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "registered and logged in as %s (id %d)\n", user.Email, user.ID)
		return nil
	case "login":
		if len(rest) != 2 {
			return errUsage
		}
		user, err := c.Login(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "logged in as %s (%s)\n", user.Email, user.Role)
		return nil
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "logged out")
		return nil
	case "whoami":
		return out(c.CurrentUser(ctx))
	case "health":
		return out(c.Health(ctx))
	case "courses":
		return out(c.Courses(ctx))
	case "course":
		if len(rest) != 1 {
			return errUsage
		}
		return out(c.Course(ctx, rest[0]))
	case "buy":
		if len(rest) != 1 {
			return errUsage
		}
		return out(c.RequestPurchase(ctx, rest[0]))
	case "review":
		if len(rest) < 2 {
			return errUsage
		}
		rating, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("%w: rating must be a number", errUsage)
		}
		return out(c.SubmitReview(ctx, rest[0], strings.Join(rest[2:], " "), rating))
	case "reviews":
		if len(rest) > 1 {
			return errUsage
		}
		courseID := ""
		if len(rest) == 1 {
			courseID = rest[0]
		}
		return out(c.Reviews(ctx, courseID))
	case "purchases":
		return out(c.Purchases(ctx))
	case "users":
		return out(c.Users(ctx))
	case "moderate":
		if len(rest) != 3 {
			return errUsage
		}
		id, err := strconv.Atoi(rest[1])
		if err != nil {
			return errUsage
		}
		status := models.Status(rest[2])
		switch rest[0] {
		case "purchase":
			return out(c.SetPurchaseStatus(ctx, id, status))
		case "review":
			return out(c.SetReviewStatus(ctx, id, status))
		}
		return errUsage
	case "delete":
		if len(rest) != 2 {
			return errUsage
		}
		id, err := strconv.Atoi(rest[1])
		if err != nil {
			return errUsage
		}
		switch rest[0] {
		case "purchase":
			err = c.DeletePurchase(ctx, id)
		case "review":
			err = c.DeleteReview(ctx, id)
		default:
			return errUsage
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s %d deleted\n", rest[0], id)
		return nil
	}
	return errUsage
}

// jsonPrinter returns a function that writes v as indented JSON unless err
// is set. Its signature lets client calls be passed straight through.
func jsonPrinter(w io.Writer) func(any, error) error {
	return func(v any, err error) error {
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
