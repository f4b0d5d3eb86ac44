package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-blog-client/internal/domain"
	"github.com/samvad-hq/samvad-blog-client/internal/render"
	"github.com/samvad-hq/samvad-blog-client/internal/storage"
	"github.com/samvad-hq/samvad-blog-client/pkg/blogapi"
	"github.com/samvad-hq/samvad-blog-client/pkg/publishers"
	"github.com/spf13/pflag"
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("usage error")

const usageText = `usage: blogctl [--profile name] [--output json|yaml|text] <command> [flags]

commands:
  login --username U (--password P | --password-stdin)
  register --username U --email E --first-name F --last-name L (--password P | --password-stdin)
  logout
  sessions
  whoami
  users
  blogs list
  blogs show <blogId>
  blogs create --title T (--content C | --content-file PATH) [--tag NAME ...]
  comments list <blogId>
  comments add <blogId> --content C
  comments delete <commentId>
`

// invocation carries per-run state shared by command handlers.
type invocation struct {
	profile string
	output  string
	sess    *blogapi.Session
}

type handler func(ctx context.Context, inv *invocation, args []string) (any, error)

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Run executes one blogctl command line (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	global := pflag.NewFlagSet("blogctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	profile := global.StringP("profile", "p", a.cfg.Profile, "session profile")
	output := global.StringP("output", "o", a.cfg.OutputFormat, "output format: json, yaml or text")
	help := global.BoolP("help", "h", false, "show usage")
	if err := global.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	rest := global.Args()
	if *help || len(rest) == 0 || rest[0] == "help" {
		fmt.Fprint(a.stdout, usageText)
		if len(rest) == 0 && !*help {
			return usageErr("no command given")
		}
		return nil
	}

	h, cmdArgs, err := a.lookup(rest)
	if err != nil {
		return err
	}

	inv := &invocation{
		profile: strings.TrimSpace(*profile),
		output:  strings.ToLower(strings.TrimSpace(*output)),
	}
	if inv.profile == "" {
		return usageErr("profile must not be empty")
	}
	inv.sess, err = a.openSession(inv.profile)
	if err != nil {
		return err
	}

	result, err := h(ctx, inv, cmdArgs)
	a.persistSession(inv.profile, inv.sess)
	if err != nil {
		return err
	}
	return render.Write(a.stdout, inv.output, result)
}

func (a *App) lookup(args []string) (handler, []string, error) {
	top := map[string]handler{
		"login":    a.login,
		"register": a.register,
		"logout":   a.logout,
		"sessions": a.sessions,
		"whoami":   a.whoami,
		"users":    a.users,
	}
	if h, ok := top[args[0]]; ok {
		return h, args[1:], nil
	}

	groups := map[string]map[string]handler{
		"blogs": {
			"list":   a.listBlogs,
			"show":   a.showBlog,
			"create": a.createBlog,
		},
		"comments": {
			"list":   a.listComments,
			"add":    a.addComment,
			"delete": a.deleteComment,
		},
	}
	group, ok := groups[args[0]]
	if !ok {
		return nil, nil, usageErr("unknown command %q", args[0])
	}
	if len(args) < 2 {
		return nil, nil, usageErr("%s needs a subcommand", args[0])
	}
	h, ok := group[args[1]]
	if !ok {
		return nil, nil, usageErr("unknown command %q", args[0]+" "+args[1])
	}
	return h, args[2:], nil
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, usageErr("%s: %v", fs.Name(), err)
	}
	if fs.NArg() != positional {
		return nil, usageErr("%s expects %d argument(s), got %d", fs.Name(), positional, fs.NArg())
	}
	return fs.Args(), nil
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, usageErr("invalid %s %q", name, raw)
	}
	return id, nil
}

// readPassword returns the flag value, or the first line of stdin when fromStdin is set.
func (a *App) readPassword(flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		if flagValue == "" {
			return "", usageErr("--password or --password-stdin is required")
		}
		return flagValue, nil
	}
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", usageErr("empty password on stdin")
	}
	return line, nil
}

func (a *App) login(ctx context.Context, inv *invocation, args []string) (any, error) {
	fs := newFlagSet("login")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	fromStdin := fs.Bool("password-stdin", false, "read the password from stdin")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return nil, err
	}
	if *username == "" {
		return nil, usageErr("--username is required")
	}
	pw, err := a.readPassword(*password, *fromStdin)
	if err != nil {
		return nil, err
	}

	// The stored session is replaced only once the new login succeeds.
	fresh, err := a.client.NewSession()
	if err != nil {
		return nil, err
	}
	if err := a.client.Login(ctx, fresh, domain.Credentials{Username: *username, Password: pw}); err != nil {
		return nil, err
	}
	inv.sess = fresh
	a.publish(ctx, publishers.NewEvent(publishers.ActionLogin, inv.profile, "user", 0, map[string]string{
		"username": *username,
	}))
	return render.Message{Status: "logged in", Detail: *username}, nil
}

func (a *App) register(ctx context.Context, inv *invocation, args []string) (any, error) {
	fs := newFlagSet("register")
	var req domain.RegistrationRequest
	fs.StringVar(&req.Username, "username", "", "account username")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.FirstName, "first-name", "", "first name")
	fs.StringVar(&req.LastName, "last-name", "", "last name")
	password := fs.String("password", "", "account password")
	fromStdin := fs.Bool("password-stdin", false, "read the password from stdin")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return nil, err
	}
	pw, err := a.readPassword(*password, *fromStdin)
	if err != nil {
		return nil, err
	}
	req.Password = pw

	if err := a.client.Register(ctx, inv.sess, req); err != nil {
		return nil, err
	}
	a.publish(ctx, publishers.NewEvent(publishers.ActionRegister, inv.profile, "user", 0, map[string]string{
		"username": req.Username,
	}))
	return render.Message{Status: "registered", Detail: req.Username}, nil
}

func (a *App) logout(ctx context.Context, inv *invocation, args []string) (any, error) {
	if _, err := parseFlags(newFlagSet("logout"), args, 0); err != nil {
		return nil, err
	}
	if err := a.client.Logout(ctx, inv.sess); err != nil {
		return nil, err
	}
	a.publish(ctx, publishers.NewEvent(publishers.ActionLogout, inv.profile, "", 0, nil))
	return render.Message{Status: "logged out"}, nil
}

// sessions lists the locally stored profiles. It makes no remote call.
func (a *App) sessions(_ context.Context, _ *invocation, args []string) (any, error) {
	if _, err := parseFlags(newFlagSet("sessions"), args, 0); err != nil {
		return nil, err
	}
	infos, err := a.store.Sessions()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if infos == nil {
		infos = []storage.SessionInfo{}
	}
	return infos, nil
}

func (a *App) whoami(ctx context.Context, inv *invocation, args []string) (any, error) {
	if _, err := parseFlags(newFlagSet("whoami"), args, 0); err != nil {
		return nil, err
	}
	u, err := a.client.CurrentUser(ctx, inv.sess)
	if err != nil {
		return nil, err
	}
	u.Password = ""
	return u, nil
}

func (a *App) users(ctx context.Context, inv *invocation, args []string) (any, error) {
	if _, err := parseFlags(newFlagSet("users"), args, 0); err != nil {
		return nil, err
	}
	users, err := a.client.ListUsers(ctx, inv.sess)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

func (a *App) listBlogs(ctx context.Context, inv *invocation, args []string) (any, error) {
	if _, err := parseFlags(newFlagSet("blogs list"), args, 0); err != nil {
		return nil, err
	}
	return a.client.ListBlogs(ctx, inv.sess)
}

func (a *App) showBlog(ctx context.Context, inv *invocation, args []string) (any, error) {
	pos, err := parseFlags(newFlagSet("blogs show"), args, 1)
	if err != nil {
		return nil, err
	}
	id, err := parseID("blog id", pos[0])
	if err != nil {
		return nil, err
	}
	return a.client.GetBlog(ctx, inv.sess, id)
}

func (a *App) createBlog(ctx context.Context, inv *invocation, args []string) (any, error) {
	fs := newFlagSet("blogs create")
	title := fs.String("title", "", "blog title")
	content := fs.String("content", "", "blog content (HTML or text)")
	contentFile := fs.String("content-file", "", "read blog content from a file")
	tags := fs.StringArray("tag", nil, "tag name, repeatable")
	if _, err := parseFlags(fs, args, 0); err != nil {
		return nil, err
	}
	if *contentFile != "" {
		if *content != "" {
			return nil, usageErr("--content and --content-file are mutually exclusive")
		}
		raw, err := os.ReadFile(*contentFile)
		if err != nil {
			return nil, fmt.Errorf("read content file: %w", err)
		}
		*content = string(raw)
	}

	blog, err := a.client.CreateBlog(ctx, inv.sess, domain.CreateBlogRequest{
		Title:   *title,
		Content: *content,
		Tags:    *tags,
	})
	if err != nil {
		return nil, err
	}
	a.publish(ctx, publishers.NewEvent(publishers.ActionBlogCreate, inv.profile, "blog", blog.ID, blog))
	return blog, nil
}

func (a *App) listComments(ctx context.Context, inv *invocation, args []string) (any, error) {
	pos, err := parseFlags(newFlagSet("comments list"), args, 1)
	if err != nil {
		return nil, err
	}
	blogID, err := parseID("blog id", pos[0])
	if err != nil {
		return nil, err
	}
	return a.client.ListComments(ctx, inv.sess, blogID)
}

func (a *App) addComment(ctx context.Context, inv *invocation, args []string) (any, error) {
	fs := newFlagSet("comments add")
	content := fs.String("content", "", "comment text")
	pos, err := parseFlags(fs, args, 1)
	if err != nil {
		return nil, err
	}
	blogID, err := parseID("blog id", pos[0])
	if err != nil {
		return nil, err
	}

	comment, err := a.client.CreateComment(ctx, inv.sess, blogID, domain.CreateCommentRequest{Content: *content})
	if err != nil {
		return nil, err
	}
	a.publish(ctx, publishers.NewEvent(publishers.ActionCommentCreate, inv.profile, "comment", comment.ID, comment))
	return comment, nil
}

func (a *App) deleteComment(ctx context.Context, inv *invocation, args []string) (any, error) {
	pos, err := parseFlags(newFlagSet("comments delete"), args, 1)
	if err != nil {
		return nil, err
	}
	commentID, err := parseID("comment id", pos[0])
	if err != nil {
		return nil, err
	}
	if err := a.client.DeleteComment(ctx, inv.sess, commentID); err != nil {
		return nil, err
	}
	a.publish(ctx, publishers.NewEvent(publishers.ActionCommentDelete, inv.profile, "comment", commentID, nil))
	return render.Message{Status: "deleted", Detail: fmt.Sprintf("comment %d", commentID)}, nil
}
