package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aide-ai/aide/internal/config"
	"github.com/aide-ai/aide/internal/store"
)

func runContact(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: aide contact <add|list> [flags]")
	}

	switch args[0] {
	case "add":
		return runContactAdd(args[1:])
	case "list":
		return runContactList(args[1:])
	default:
		return fmt.Errorf("unknown contact subcommand: %s", args[0])
	}
}

func runContactAdd(args []string) error {
	rec := &store.ContactRecord{}
	var dbFlag string

	for i := 0; i < len(args); i++ {
		flag := args[i]

		var dst *string
		switch flag {
		case "--name":
			dst = &rec.Name
		case "--company":
			dst = &rec.Company
		case "--position":
			dst = &rec.Position
		case "--email":
			dst = &rec.Email
		case "--phone":
			dst = &rec.Phone
		case "--type":
			dst = &rec.Type
		case "--db":
			dst = &dbFlag
		default:
			return fmt.Errorf("unknown flag: %s", flag)
		}

		i++
		if i >= len(args) {
			return fmt.Errorf("%s requires a value", flag)
		}
		*dst = args[i]
	}

	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("usage: aide contact add --name <name> [--company <c>] [--position <p>] [--email <e>] [--phone <p>] [--type individual|corporate]")
	}

	s, err := openStore(dbFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.AddContact(context.Background(), rec)
	if err != nil {
		return err
	}

	fmt.Printf("Contact %q added (id: %d)\n", rec.Name, id)
	return nil
}

func runContactList(args []string) error {
	var dbFlag string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--db":
			i++
			if i >= len(args) {
				return fmt.Errorf("--db requires a value")
			}
			dbFlag = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	s, err := openStore(dbFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	contacts, err := s.ListContacts(context.Background(), 0)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts in the directory.")
		return nil
	}

	for _, c := range contacts {
		line := fmt.Sprintf("#%d  %s", c.ID, c.Name)
		if c.Company != "" {
			line += " — " + c.Company
		}
		if c.Email != "" {
			line += " <" + c.Email + ">"
		}
		fmt.Println(line)
	}
	return nil
}

func openStore(dbFlag string) (store.Store, error) {
	resolved, err := config.ResolveConfig(config.ResolveOptions{CLIDBPath: dbFlag})
	if err != nil {
		return nil, err
	}
	s, err := store.Open(store.Config{DBPath: resolved.DBPath.Value})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}
