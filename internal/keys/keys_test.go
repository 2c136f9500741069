package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_NoConflicts(t *testing.T) {
	k := DefaultKeyMap()

	seen := map[string]string{}
	check := func(name string, bindingKeys []string) {
		for _, kk := range bindingKeys {
			if other, dup := seen[kk]; dup {
				t.Errorf("key %q bound to both %s and %s", kk, other, name)
			}
			seen[kk] = name
		}
	}

	check("Up", k.Up.Keys())
	check("Down", k.Down.Keys())
	check("PageUp", k.PageUp.Keys())
	check("PageDown", k.PageDown.Keys())
	check("Top", k.Top.Keys())
	check("Bottom", k.Bottom.Keys())
	check("NextFile", k.NextFile.Keys())
	check("PrevFile", k.PrevFile.Keys())
	check("ToggleCollapse", k.ToggleCollapse.Keys())
	check("ToggleFull", k.ToggleFull.Keys())
	check("CollapseAll", k.CollapseAll.Keys())
	check("ExpandAll", k.ExpandAll.Keys())
	check("ModeUncommitted", k.ModeUncommitted.Keys())
	check("ModeCommit", k.ModeCommit.Keys())
	check("ModeFull", k.ModeFull.Keys())
	check("ToggleSplit", k.ToggleSplit.Keys())
	check("ToggleFileList", k.ToggleFileList.Keys())
	check("Refresh", k.Refresh.Keys())
	check("GoToFile", k.GoToFile.Keys())
	check("Yank", k.Yank.Keys())
	check("Pin", k.Pin.Keys())
	check("ToggleLog", k.ToggleLog.Keys())
	check("Help", k.Help.Keys())
	check("Escape", k.Escape.Keys())
	check("Quit", k.Quit.Keys())
}

func TestDefaultKeyMap_CoreBindings(t *testing.T) {
	k := DefaultKeyMap()

	require.Equal(t, []string{"tab"}, k.ToggleCollapse.Keys())
	require.Equal(t, []string{"E"}, k.ExpandAll.Keys())
	require.Equal(t, []string{"C"}, k.CollapseAll.Keys())
	require.Equal(t, []string{"/"}, k.GoToFile.Keys())
	require.Contains(t, k.Quit.Keys(), "ctrl+c")
}

func TestHelpGroupsAreNonEmpty(t *testing.T) {
	k := DefaultKeyMap()
	require.NotEmpty(t, k.ShortHelp())
	for i, group := range k.FullHelp() {
		require.NotEmpty(t, group, "help group %d", i)
	}
}
