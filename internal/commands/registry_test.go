package commands_test

import (
	"context"
	"flag"
	"io"
	"strings"
	"testing"

	"chatdo/internal/commands"
	"chatdo/internal/config"
	"chatdo/internal/service"
	"chatdo/internal/testutil"
)

type stubCmd struct {
	name    string
	aliases []string
}

func (c *stubCmd) Name() string                   { return c.name }
func (c *stubCmd) Aliases() []string              { return c.aliases }
func (c *stubCmd) Synopsis() string               { return "Stub " + c.name }
func (c *stubCmd) Usage() string                  { return "chatdo " + c.name }
func (c *stubCmd) NeedsService() bool             { return false }
func (c *stubCmd) RegisterFlags(fs *flag.FlagSet) {}
func (c *stubCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	return 0
}

func TestRegistry_FindByNameAndAlias(t *testing.T) {
	r := commands.NewRegistry()
	rm := &stubCmd{name: "rm", aliases: []string{"delete"}}
	if err := r.Register(rm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"rm", "delete"} {
		got, ok := r.Find(name)
		if !ok || got != commands.Command(rm) {
			t.Errorf("Find(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := r.Find("remove"); ok {
		t.Error("expected unknown name to be missing")
	}
}

func TestRegistry_Conflicts(t *testing.T) {
	tests := []struct {
		name string
		cmd  *stubCmd
		want string
	}{
		{"same name", &stubCmd{name: "rm"}, "command already registered: rm"},
		{"name is an alias", &stubCmd{name: "delete"}, "command already registered: delete"},
		{"alias is a name", &stubCmd{name: "erase", aliases: []string{"rm"}}, "command alias already registered: rm"},
		{"alias is an alias", &stubCmd{name: "erase", aliases: []string{"delete"}}, "command alias already registered: delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := commands.NewRegistry()
			if err := r.Register(&stubCmd{name: "rm", aliases: []string{"delete"}}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err := r.Register(tt.cmd)

			if err == nil || err.Error() != tt.want {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
			if _, ok := r.Find("erase"); ok {
				t.Error("a rejected command must not be registered")
			}
		})
	}
}

func TestRegistry_AllSortedOncePerCommand(t *testing.T) {
	r := commands.NewRegistry()
	for _, c := range []*stubCmd{
		{name: "undo", aliases: []string{"reopen"}},
		{name: "add", aliases: []string{"create"}},
		{name: "list", aliases: []string{"ls"}},
	} {
		if err := r.Register(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	var names []string
	for _, c := range r.All() {
		names = append(names, c.Name())
	}

	if got := strings.Join(names, ","); got != "add,list,undo" {
		t.Errorf("expected add,list,undo, got %s", got)
	}
}

func TestHelpCommand_ListsRegistry(t *testing.T) {
	r := commands.NewRegistry()
	_ = r.Register(&stubCmd{name: "add", aliases: []string{"create"}})
	_ = r.Register(&stubCmd{name: "version"})
	help := &commands.HelpCmd{}
	help.SetRegistry(r)

	stdout, _, _ := runCommand(t, help, nil, nil, false)

	testutil.GoldenString(t, "help_stub_registry", stdout)
}
