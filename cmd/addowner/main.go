package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/utils"
	"hoaportal/pkg/validation"
)

// Provisions an owner directly in the store. Run this against a stopped
// server; pebble takes an exclusive lock on the database directory.
func main() {
	var (
		dbPath = flag.String("db", "./.database", "store path")
		email  = flag.String("email", "", "owner email (required)")
		name   = flag.String("name", "", "owner full name (required)")
		unit   = flag.String("unit", "", "unit designation")
		phone  = flag.String("phone", "", "contact phone")
		role   = flag.String("role", models.RoleOwner, "role: owner, board or admin")
	)
	flag.Parse()
	logger.Init("info")

	if *email == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "-email and -name are required")
		os.Exit(2)
	}

	o := models.Owner{
		ID:    utils.NewID(),
		Email: *email,
		Name:  *name,
		Unit:  *unit,
		Phone: *phone,
		Role:  *role,
	}
	if err := validation.ValidateOwner(o); err != nil {
		fmt.Fprintf(os.Stderr, "invalid owner: %v\n", err)
		os.Exit(2)
	}

	password, err := promptPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "password entry failed: %v\n", err)
		os.Exit(1)
	}

	if err := store.Open(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store at %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	if _, err := store.GetOwnerByEmail(o.Email); err == nil {
		fmt.Fprintf(os.Stderr, "email %s is already registered\n", o.Email)
		os.Exit(1)
	} else if !errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash failed: %v\n", err)
		os.Exit(1)
	}
	o.PasswordHash = string(hash)

	if err := store.SaveOwner(o); err != nil {
		fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
		os.Exit(1)
	}
	acct := models.Account{ID: utils.NewID(), OwnerID: o.ID, Unit: o.Unit}
	if err := store.SaveAccount(acct); err != nil {
		fmt.Fprintf(os.Stderr, "account create failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("owner created: id=%s email=%s role=%s account=%s\n", o.ID, o.Email, o.Role, acct.ID)
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pw) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	fmt.Print("Confirm password: ")
	pw2, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(pw) != string(pw2) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}
