package conversation

import (
	"regexp"
	"strings"
)

// commandKind enumerates everything a single line of input can start.
type commandKind int

const (
	cmdNone commandKind = iota
	cmdMenu
	cmdHelp
	cmdGreeting
	cmdThanks
	cmdRegister
	cmdFreeText
	cmdList
	cmdNext
	cmdHistory
	cmdStatus
	cmdClear
	cmdSleep
	cmdPause
	cmdReactivate
	cmdSearch
	cmdEdit
	cmdRemove
	cmdQuickRegister
)

// command is one routed line: the matched kind, an optional trailing
// argument (pausar Losartana) and the quick-register capture when present.
type command struct {
	kind  commandKind
	arg   string
	quick quickRegister
}

type quickRegister struct {
	Name string
	Time string
	Dose string
}

// menu digit shortcuts follow the bracelet companion's fixed mapping.
var menuDigits = map[string]commandKind{
	"0": cmdHelp,
	"1": cmdRegister,
	"2": cmdList,
	"3": cmdEdit,
	"4": cmdRemove,
	"5": cmdNext,
	"6": cmdPause,
	"7": cmdSleep,
	"8": cmdFreeText,
	"9": cmdSearch,
}

var greetingWords = map[string]bool{
	"oi": true, "ola": true, "bom dia": true, "boa tarde": true,
	"boa noite": true, "eai": true, "opa": true,
}

var thanksWords = map[string]bool{
	"obrigado": true, "obrigada": true, "valeu": true, "brigado": true,
}

var simpleCommands = map[string]commandKind{
	"menu":      cmdMenu,
	"ajuda":     cmdHelp,
	"help":      cmdHelp,
	"cadastrar": cmdRegister,
	"listar":    cmdList,
	"lista":     cmdList,
	"proximo":   cmdNext,
	"proxima":   cmdNext,
	"historico": cmdHistory,
	"status":    cmdStatus,
	"limpar":    cmdClear,
	"sono":      cmdSleep,
}

var argCommands = map[string]commandKind{
	"pausar":   cmdPause,
	"reativar": cmdReactivate,
	"buscar":   cmdSearch,
	"editar":   cmdEdit,
	"remover":  cmdRemove,
}

// quickRegisterPattern matches the "Nome HH:MM dose" shorthand. The name may
// span several words; the dose text is everything after the time.
var quickRegisterPattern = regexp.MustCompile(`^(\pL[\pL\pN ]*?)\s+([0-9]{1,2}[:h][0-9]{2})\s+(\S.*)$`)

// route maps one input line to a command. Detection is ordered and
// first-match-wins; anything unmatched falls through to cmdNone.
func route(input string) command {
	trimmed := strings.TrimSpace(input)
	folded := normalize(trimmed)

	if kind, ok := menuDigits[folded]; ok {
		return command{kind: kind}
	}
	if greetingWords[folded] {
		return command{kind: cmdGreeting}
	}
	if thanksWords[folded] {
		return command{kind: cmdThanks}
	}
	if kind, ok := simpleCommands[folded]; ok {
		return command{kind: kind}
	}
	if word, _, _ := strings.Cut(folded, " "); word != "" {
		if kind, ok := argCommands[word]; ok {
			// keep the original casing of the argument
			_, arg, _ := strings.Cut(trimmed, " ")
			return command{kind: kind, arg: strings.TrimSpace(arg)}
		}
	}
	if m := quickRegisterPattern.FindStringSubmatch(trimmed); m != nil {
		return command{kind: cmdQuickRegister, quick: quickRegister{
			Name: strings.TrimSpace(m[1]),
			Time: normalizeTime(m[2]),
			Dose: strings.TrimSpace(m[3]),
		}}
	}
	return command{kind: cmdNone}
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

// normalize lowercases and strips Portuguese accents so commands match
// however the caregiver types them.
func normalize(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// normalizeTime turns accepted time spellings (8h30, 08:30) into HH:MM.
func normalizeTime(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "h", ":")
	if len(s) == 4 && s[1] == ':' {
		s = "0" + s
	}
	return s
}

var affirmativeWords = map[string]bool{
	"sim": true, "s": true, "ok": true, "confirmo": true, "confirmar": true,
	"isso": true, "pode": true, "claro": true,
}

var negativeWords = map[string]bool{
	"nao": true, "n": true, "pular": true, "nenhuma": true, "nada": true,
}

var cancelWords = map[string]bool{
	"cancelar": true, "cancela": true, "voltar": true, "sair": true, "menu": true,
}

func isAffirmative(s string) bool { return affirmativeWords[normalize(s)] }
func isNegative(s string) bool    { return negativeWords[normalize(s)] }
func isCancel(s string) bool      { return cancelWords[normalize(s)] }
