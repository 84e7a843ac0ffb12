package main

import (
	"context"
	"fmt"
	"strings"
)

func runHistory(args []string) error {
	var (
		id     string
		dbFlag string
	)
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--db":
			i++
			if i >= len(args) {
				return fmt.Errorf("--db requires a value")
			}
			dbFlag = args[i]
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			if id != "" {
				return fmt.Errorf("only one analysis ID allowed")
			}
			id = args[i]
		}
	}

	s, err := openStore(dbFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()

	if id != "" {
		rec, err := s.GetAnalysis(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("analysis %q not found", id)
		}
		fmt.Println(rec.ResultJSON)
		return nil
	}

	list, err := s.ListAnalyses(ctx, 20)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No archived analyses yet.")
		return nil
	}

	for _, a := range list {
		title := a.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s\n", a.AnalyzedAt.Format("2006-01-02 15:04"), a.ID, title)
	}
	return nil
}
