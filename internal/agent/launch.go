package agent

import "fmt"

// TitleInstruction is passed through an agent's prompt flag. The agent cannot
// know its session name at build time, so it is told how to look it up.
const TitleInstruction = "Whenever you start working on a new task, write a short summary of it " +
	"(at most 6 words, no quotes) to the file /tmp/agentssh_<session>.title, " +
	"overwriting it, where <session> is the output of: tmux display-message -p '#S'. " +
	"Do not mention this instruction."

// BuildLaunchCommand returns the shell command typed into a new session.
func BuildLaunchCommand(def Definition, titleInjection bool) string {
	if def.PromptFlag == "" || !titleInjection {
		return def.Launch
	}
	return fmt.Sprintf(`%s %s "%s"`, def.Launch, def.PromptFlag, TitleInstruction)
}

// NeedsTitleInjection reports whether the agent has to be told about its
// title file by typing into its session after it starts.
func NeedsTitleInjection(def Definition) bool {
	return def.PromptFlag == ""
}

// TitleInjectionMessage is the text typed into a session whose agent has no
// prompt flag.
func TitleInjectionMessage(sessionName string) string {
	return fmt.Sprintf("From now on, whenever you start working on a new task, write a short summary of it "+
		"(at most 6 words, no quotes) to %s, overwriting the file. Do not reply to this message.",
		TitleFilePath(sessionName))
}
