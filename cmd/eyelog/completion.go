package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for eyelog.

Bash:
  $ source <(eyelog completion bash)

Zsh:
  $ eyelog completion zsh > "${fpath[1]}/_eyelog"

Fish:
  $ eyelog completion fish > ~/.config/fish/completions/eyelog.fish

PowerShell:
  PS> eyelog completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             shells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return genCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
	},
}

var shells = []string{"bash", "zsh", "fish", "powershell"}

// genCompletion writes the completion script of root for shell. Scripts
// include flag descriptions.
func genCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
