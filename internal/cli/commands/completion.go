package commands

import (
	"fmt"
	"os"
	"strings"
)

// Completion provides shell completion scripts for bash and zsh.
// Usage:
//
//	shwrap completion           # prints completions for all supported shells
//	shwrap completion bash      # prints bash completion
//	shwrap completion zsh       # prints zsh completion
func Completion(args []string) error {
	shell := ""
	if len(args) > 0 {
		shell = strings.ToLower(args[0])
	}

	switch shell {
	case "bash":
		printBashCompletion()
		return nil
	case "zsh":
		printZshCompletion()
		return nil
	case "", "all":
		printBashCompletion()
		fmt.Println()
		printZshCompletion()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "unknown shell: %s (supported: bash, zsh)\n", shell)
		return fmt.Errorf("unsupported shell: %s", shell)
	}
}

func printBashCompletion() {
	fmt.Println(`# bash completion for shwrap
_shwrap_completions()
{
    local cur prev words cword
    _init_completion || return

    local -a commands
    commands=(
        wrap perl build watch store lines doctor completion help version
    )

    case ${COMP_CWORD} in
        1)
            COMPREPLY=( $(compgen -W "${commands[*]}" -- "$cur") )
            return ;;
        *)
            case ${COMP_WORDS[1]} in
                wrap)
                    COMPREPLY=( $(compgen -f -W "--name --dep --env --arg --args --check --shell --from-store --print" -- "$cur") ) ;;
                perl)
                    COMPREPLY=( $(compgen -f -W "--pkg --manifest --name --check --shell" -- "$cur") ) ;;
                build|watch)
                    COMPREPLY=( $(compgen -f -W "--jobs" -- "$cur") ) ;;
                store)
                    COMPREPLY=( $(compgen -W "list show verify path" -- "$cur") ) ;;
                lines)
                    COMPREPLY=( $(compgen -f -W "--number --trim --reverse --squeeze" -- "$cur") ) ;;
                doctor)
                    COMPREPLY=( $(compgen -W "--fix --verbose" -- "$cur") ) ;;
                completion)
                    COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") ) ;;
                *)
                    COMPREPLY=( $(compgen -W "--verbose --debug" -- "$cur") ) ;;
            esac
            return ;;
    esac
}
complete -F _shwrap_completions shwrap`)
}

func printZshCompletion() {
	fmt.Println(`#compdef shwrap
_shwrap() {
  local -a commands
  commands=(
    'wrap:Generate a wrapper script for an executable'
    'perl:Wrap a Perl program with PERL5LIB dependencies'
    'build:Build all wrappers of a manifest'
    'watch:Rebuild a manifest whenever it changes'
    'store:Inspect the artifact store'
    'lines:Transform a file line by line'
    'doctor:System health check'
    'completion:Generate shell completion scripts'
    'version:Show version'
    'help:Show help'
  )

  _arguments \
    '1: :->cmds' \
    '*:: :->args'

  case $state in
    cmds)
      _describe 'command' commands
      ;;
    args)
      case $words[1] in
        completion)
          _values 'shell' bash zsh
          ;;
        store)
          _values 'subcommand' list show verify path
          ;;
        wrap)
          _arguments '--name[wrapper name]:name' '*--dep[dependency]:dep:_files' '*--env[KEY=VALUE]:env' '*--arg[bound argument]:arg' '--check[extra check]:script' '--shell[interpreter]:shell:_files' '--print[print instead of building]' '1:executable:_files'
          ;;
        build|watch|lines)
          _files
          ;;
        *)
          _message 'arguments'
          ;;
      esac
      ;;
  esac
}
_shwrap "$@"`)
}
