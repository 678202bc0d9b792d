package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"productdesk/internal/form"
	"productdesk/internal/grid"
)

const shellHelp = `Commands:
  list                 show the grid
  add                  open an empty form
  edit <id>            open the product with that id
  open <row>           open the product shown at that row
  set <field> <value>  change a field of the open form
  form                 show the open form
  save                 save the open form
  cancel               close the form without saving
  delete <id>          delete a product
  refresh              reload from the server
  help                 show this help
  quit                 leave
Fields: name, description, price, quantity`

// runShell reads commands until quit or end of input.
func (s *session) runShell(ctx context.Context) error {
	if err := grid.Render(s.out, s.ctrl.Records()); err != nil {
		return err
	}
	fmt.Fprintln(s.out, `Type "help" for commands.`)

	for {
		fmt.Fprint(s.out, s.prompt())
		line, err := s.in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if quit := s.exec(ctx, line); quit {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *session) prompt() string {
	if f := s.ctrl.Form(); f != nil {
		return "productctl (" + f.Title() + ")> "
	}
	return "productctl> "
}

// exec runs one shell command and reports whether the shell should stop.
func (s *session) exec(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "list", "ls":
		err = grid.Render(s.out, s.ctrl.Records())
	case "refresh":
		if err = s.ctrl.Refresh(ctx); err == nil {
			err = grid.Render(s.out, s.ctrl.Records())
		}
	case "add":
		s.ctrl.Add()
		s.showForm()
	case "edit":
		var id int64
		if id, err = parseID(rest); err == nil {
			if _, err = s.ctrl.EditByID(id); err == nil {
				s.showForm()
			}
		}
	case "open":
		err = s.openRow(rest)
	case "set":
		err = s.setField(rest)
	case "form":
		s.showForm()
	case "save":
		if err = s.save(ctx); err == nil {
			err = grid.Render(s.out, s.ctrl.Records())
		}
	case "cancel":
		s.ctrl.Cancel()
	case "delete", "rm":
		var id int64
		if id, err = parseID(rest); err == nil {
			var attempted bool
			if attempted, err = s.ctrl.DeleteByID(ctx, id); attempted {
				if renderErr := grid.Render(s.out, s.ctrl.Records()); err == nil {
					err = renderErr
				}
			}
		}
	default:
		err = fmt.Errorf("unknown command %q, type \"help\"", cmd)
	}

	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
	}
	return false
}

func (s *session) openRow(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid row %q", arg)
	}
	record, ok := grid.RowAt(s.ctrl.Records(), n-1)
	if !ok {
		return fmt.Errorf("no row %d", n)
	}
	s.ctrl.Edit(record)
	s.showForm()
	return nil
}

func (s *session) setField(arg string) error {
	f := s.ctrl.Form()
	if f == nil {
		return errors.New(`no form is open, use "add" or "edit" first`)
	}
	name, value, _ := strings.Cut(arg, " ")
	return f.SetField(strings.ToLower(name), strings.TrimSpace(value))
}

func (s *session) showForm() {
	f := s.ctrl.Form()
	if f == nil {
		fmt.Fprintln(s.out, "no form is open")
		return
	}
	fmt.Fprintln(s.out, f.Title())
	errs := f.Validate()
	for _, name := range form.Fields() {
		line := fmt.Sprintf("  %-12s %q", name, f.Field(name))
		if msg, ok := errs[name]; ok {
			line += "  (" + msg + ")"
		}
		fmt.Fprintln(s.out, line)
	}
	if f.CanSave() {
		fmt.Fprintln(s.out, "  [save] [cancel]")
	} else {
		fmt.Fprintln(s.out, "  [cancel]  save is disabled until every field is valid")
	}
}
