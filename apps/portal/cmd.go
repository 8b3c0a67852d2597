package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/user"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("please log in first")
	errAdminOnly   = errors.New("only admins can do this")
)

type commandLine struct {
	session  *client.Session
	out      io.Writer
	now      func() time.Time
	commands map[string]command
}

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

func newCommandLine(session *client.Session, out io.Writer) *commandLine {
	cli := &commandLine{session: session, out: out, now: time.Now}
	cli.commands = map[string]command{
		"login":         {"login -username USERNAME|EMAIL - sign in, the password is prompted", cli.login},
		"register":      {"register -username USERNAME -email EMAIL - create an account and sign in", cli.register},
		"logout":        {"logout - forget the stored token", cli.logout},
		"me":            {"me - show the signed in user", cli.me},
		"password":      {"password reset -email EMAIL | password confirm -uid UID -token TOKEN - reset a forgotten password", cli.password},
		"users":         {"users [-search S] [-role R] [-active true|false] [-ordering F] - list users (admin)", cli.users},
		"dashboard":     {"dashboard - counts of what needs attention", cli.dashboard},
		"announcements": {"announcements [list|show|create|update|delete] - campus announcements", cli.announcements},
		"complaints":    {"complaints [list|all|show|submit|status|delete] - complaints", cli.complaints},
		"lostfound":     {"lostfound [list|my|show|report|update|delete] - lost and found items", cli.lostFound},
		"timetable":     {"timetable [list|show|create|update|delete] - weekly timetable", cli.timetable},
		"skills":        {"skills [list|my|show|create|update|delete] - skill marketplace", cli.skills},
		"sessions":      {"sessions [list|show|book|status] - tutoring sessions", cli.sessions},
		"reviews":       {"reviews [my|user|create] - tutor reviews", cli.reviews},
		"techfeed":      {"techfeed [list|show|saved|save|unsave|create|update|delete] - tech feed", cli.techFeed},
		"polls":         {"polls [list|show|results|vote|create|update|delete] - polls", cli.polls},
	}
	return cli
}

func (cli *commandLine) printUsage() {
	names := make([]string, 0, len(cli.commands))
	for name := range cli.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(cli.out, "Usage:")
	for _, name := range names {
		fmt.Fprintln(cli.out, "  "+cli.commands[name].usage)
	}
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	cmd, ok := cli.commands[args[1]]
	if !ok {
		cli.printUsage()
		return errHelp
	}
	return cmd.run(ctx, args[2:])
}

// action splits "list -flag x" into ("list", ["-flag", "x"]). The action defaults to dflt.
func action(args []string, dflt string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return dflt, args
	}
	return args[0], args[1:]
}

func (cli *commandLine) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// idArg reads the id of "show ID" or "show -id ID".
func (cli *commandLine) idArg(name string, args []string) (string, error) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], nil
	}
	fs := cli.flags(name)
	id := fs.String("id", "", "id")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *id == "" {
		fs.Usage()
		return "", errHelp
	}
	return *id, nil
}

func (cli *commandLine) unknownAction(group, act string, actions ...string) error {
	fmt.Fprintf(cli.out, "unknown %s action %q, expected one of: %s\n", group, act, strings.Join(actions, ", "))
	return errHelp
}

func (cli *commandLine) requireUser() (user.Profile, error) {
	usr, ok := cli.session.User()
	if !ok {
		return user.Profile{}, errNotLoggedIn
	}
	return usr, nil
}

func (cli *commandLine) requireAdmin() (user.Profile, error) {
	usr, err := cli.requireUser()
	if err != nil {
		return usr, err
	}
	if !usr.IsAdmin() {
		return usr, errAdminOnly
	}
	return usr, nil
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	return string(pwd), err
}

// table prints rows aligned under header.
func (cli *commandLine) table(header []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(cli.out, "Nothing to show.")
		return
	}
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// fields prints label: value pairs.
func (cli *commandLine) fields(kv ...string) {
	w := tabwriter.NewWriter(cli.out, 0, 0, 1, ' ', 0)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			fmt.Fprintf(w, "%s:\t%s\n", kv[i], kv[i+1])
		}
	}
	_ = w.Flush()
}

func (cli *commandLine) done(msg string, args ...interface{}) {
	fmt.Fprintf(cli.out, msg+"\n", args...)
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateTimeLayout)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmtTime(*t)
}

// parseTime accepts RFC 3339, "YYYY-MM-DD HH:MM" and "YYYY-MM-DD" in local time. "" is nil.
func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	for _, layout := range []string{dateTimeLayout, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q, expected YYYY-MM-DD [HH:MM]", s)
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// optionalBool is a flag that stays nil unless set.
type optionalBool struct{ val *bool }

func (b *optionalBool) String() string {
	if b.val == nil {
		return ""
	}
	return fmt.Sprint(*b.val)
}

func (b *optionalBool) Set(v string) error {
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		t := true
		b.val = &t
	case "false", "no", "0":
		f := false
		b.val = &f
	default:
		return fmt.Errorf("invalid boolean %q", v)
	}
	return nil
}
