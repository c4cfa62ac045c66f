package conversation

import (
	"fmt"
	"strings"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/dosing"
	"github.com/example/medication-assistant/internal/persistence"
)

// User-facing text is Portuguese; everything the patient or caregiver reads
// comes from this file so the wording stays in one place.

const promptMenu = `O que deseja fazer?

1 - Cadastrar medicamento
2 - Listar medicamentos
3 - Editar medicamento
4 - Remover medicamento
5 - Proxima dose
6 - Pausar/reativar
7 - Horario de sono
8 - Cadastrar por descricao
9 - Buscar medicamento
0 - Ajuda

Digite o numero da opcao ou escreva o que precisa.`

const promptHelp = `Sou seu assistente de medicamentos. Posso cadastrar remedios, calcular os horarios das doses respeitando o horario de sono, avisar a proxima dose e registrar o historico.

Comandos: menu, listar, proximo, historico, status, sono, buscar, pausar, reativar, editar, remover, limpar.

Cadastro rapido: escreva "Nome HH:MM dose", por exemplo "Losartana 08:00 50mg".`

const promptUnrecognized = `Nao entendi. Digite "menu" para ver as opcoes ou "ajuda" para saber o que posso fazer.`

const promptGreeting = `Ola! Sou seu assistente de medicamentos. Digite "menu" para ver as opcoes.`

const promptThanks = `De nada! Estou aqui para ajudar. Nao esqueca dos seus medicamentos!`

const promptCancelled = `Tudo bem, cancelado. Digite "menu" quando quiser recomecar.`

const promptSessionReset = `Tivemos um problema com a conversa anterior, entao recomecei do inicio.`

const promptAskPatientName = `Antes de comecar, preciso saber: qual o nome do paciente?`

const promptAskMedName = `Vamos cadastrar um medicamento. Qual o nome do remedio?`

const promptAskDose = `Qual a dosagem? Por exemplo: 50mg, 10 gotas, 5ml.`

const promptAskForm = `Qual a forma do medicamento?

1 - Comprimido
2 - Capsula
3 - Gotas
4 - Liquido
5 - Injecao
6 - Outro`

const promptAskQuantity = `Quantas unidades por dose? Por exemplo: 1, 2, meio.`

const promptAskFirstTime = `Qual o horario da primeira dose? Use o formato HH:MM, por exemplo 08:00.`

const promptAskMode = `Como o medicamento deve ser tomado?

1 - X vezes ao dia (distribuo os horarios)
2 - A cada X horas (intervalo fixo)`

const promptAskCount = `Quantas vezes ao dia? Digite um numero de 1 a 12.`

const promptAskInterval = `De quantas em quantas horas? Digite um numero de 1 a 48.`

const promptAskTotalDoses = `Quantas doses no total? Digite um numero de 1 a 100.`

const promptAskCategory = `Qual a categoria do medicamento?

1 - Essencial (alarme toca mesmo durante o sono)
2 - Normal (doses sao deslocadas para fora do sono)`

const promptAskNotes = `Alguma observacao? Por exemplo: tomar em jejum. Digite "nao" para pular.`

const promptAskPhoto = `Tem uma foto do medicamento? Envie a referencia da imagem ou digite "nao" para pular.`

const promptAskFreeText = `Me descreva o medicamento em uma frase. Por exemplo: "Amoxicilina 500mg, 1 capsula a cada 8 horas, comecando as 06:00".`

const promptInvalidTime = `Horario invalido. Use o formato HH:MM, por exemplo 08:00.`

const promptInvalidNumber = `Numero invalido. Digite apenas o numero.`

const promptInvalidOption = `Opcao invalida. Digite o numero de uma das opcoes listadas.`

const promptReviewRejected = `Nao consegui montar os horarios com esses dados. Ajuste o campo com problema usando "editar N".`

const promptAskSleepStart = `Vamos configurar o horario de sono. A que horas o paciente costuma dormir? (HH:MM)`

const promptAskSleepEnd = `E a que horas costuma acordar? (HH:MM)`

const promptAskSearchTerm = `Qual medicamento deseja buscar? Digite o nome ou parte dele.`

const promptAskRemoveTarget = `Qual medicamento deseja remover? Digite o numero (id) ou o nome.`

const promptAskEditTarget = `Qual medicamento deseja editar? Digite o numero (id) ou o nome.`

const promptAskPauseTarget = `Qual medicamento deseja pausar ou reativar? Digite o numero (id) ou o nome.`

const promptAskEditField = `O que deseja alterar?

1 - Nome
2 - Dosagem
3 - Horarios
4 - Categoria
5 - Observacoes`

const promptConfirmClear = `Isso vai remover TODOS os medicamentos cadastrados. Tem certeza? Digite "sim" para confirmar.`

const promptNoMedications = `Nenhum medicamento cadastrado. Digite 1 para cadastrar o primeiro.`

const promptNoUpcoming = `Nenhuma dose programada. Digite 1 para cadastrar um medicamento.`

const promptNoHistory = `Nenhuma dose confirmada ainda.`

// formLabel maps the form menu digit or keyword to its display label.
func formLabel(input string) (string, bool) {
	switch normalize(input) {
	case "1", "comprimido", "comprimidos":
		return "comprimido", true
	case "2", "capsula", "capsulas":
		return "capsula", true
	case "3", "gota", "gotas":
		return "gotas", true
	case "4", "liquido", "xarope":
		return "liquido", true
	case "5", "injecao":
		return "injecao", true
	case "6", "outro", "outra":
		return "outro", true
	}
	return "", false
}

func confirmPatientName(name string) string {
	return fmt.Sprintf("Prazer! O paciente se chama %s, correto? (sim/nao)", name)
}

func patientReady(name string) string {
	return fmt.Sprintf("Perfeito, %s! Agora posso cuidar dos medicamentos.\n\n%s", name, promptMenu)
}

func reviewSummary(sc scratch) string {
	var b strings.Builder
	b.WriteString("Confira os dados:\n\n")
	fmt.Fprintf(&b, "1 - Nome: %s\n", sc.MedName)
	fmt.Fprintf(&b, "2 - Dosagem: %s\n", sc.Dose)
	fmt.Fprintf(&b, "3 - Forma: %s\n", sc.Form)
	fmt.Fprintf(&b, "4 - Quantidade: %s\n", sc.Quantity)
	fmt.Fprintf(&b, "5 - Primeiro horario: %s\n", sc.FirstTime)
	if sc.Mode == modeInterval {
		fmt.Fprintf(&b, "6 - Modo: a cada %d horas, %d doses\n", sc.IntervalHours, sc.TotalDoses)
	} else {
		fmt.Fprintf(&b, "6 - Modo: %d vez(es) ao dia\n", sc.CountPerDay)
	}
	fmt.Fprintf(&b, "7 - Categoria: %s\n", sc.Category)
	if sc.Notes != "" {
		fmt.Fprintf(&b, "8 - Observacoes: %s\n", sc.Notes)
	}
	if sc.PhotoRef != "" {
		fmt.Fprintf(&b, "9 - Foto: %s\n", sc.PhotoRef)
	}
	b.WriteString("\nDigite \"sim\" para salvar, \"editar N\" para alterar um campo ou \"cancelar\".")
	return b.String()
}

func committedMessage(medication persistence.Medication, conflicts []dosing.Conflict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s cadastrado! Horarios: %s.", medication.Name, strings.Join(medication.ScheduleTimes, ", "))
	for _, conflict := range conflicts {
		switch conflict.Kind {
		case dosing.ConflictMoved:
			fmt.Fprintf(&b, "\nA dose das %s caia no horario de sono e foi movida para %s.", conflict.Time, conflict.MovedTo)
		case dosing.ConflictSleepAlarm:
			fmt.Fprintf(&b, "\nAtencao: a dose das %s vai tocar o alarme durante o sono (medicamento essencial).", conflict.Time)
		case dosing.ConflictOverflowsMidnight:
			fmt.Fprintf(&b, "\nA dose das %s passa da meia-noite e cai no dia seguinte.", conflict.Time)
		}
	}
	return b.String()
}

func duplicateMessage(name string) string {
	return fmt.Sprintf("%s ja esta cadastrado com esses mesmos horarios. Nada foi alterado.", name)
}

func quickRegistered(medication persistence.Medication) string {
	return fmt.Sprintf("%s cadastrado as %s (%s). Digite \"listar\" para conferir.",
		medication.Name, medication.ScheduleTimes[0], medication.DoseDescription)
}

func medicationLine(medication persistence.Medication) string {
	status := "ativo"
	if !medication.Active {
		status = "pausado"
	}
	return fmt.Sprintf("%d - %s (%s) as %s [%s, %s]",
		medication.ID, medication.Name, medication.DoseDescription,
		strings.Join(medication.ScheduleTimes, ", "), medication.Category, status)
}

func listMessage(medications []persistence.Medication) string {
	if len(medications) == 0 {
		return promptNoMedications
	}
	lines := make([]string, 0, len(medications)+1)
	lines = append(lines, "Seus medicamentos:")
	for _, medication := range medications {
		lines = append(lines, medicationLine(medication))
	}
	return strings.Join(lines, "\n")
}

func upcomingMessage(dose application.UpcomingDose) string {
	day := "hoje"
	if dose.Tomorrow {
		day = "amanha"
	}
	return fmt.Sprintf("Proxima dose: %s (%s) as %s, %s.",
		dose.Medication.Name, dose.Medication.DoseDescription, dose.Time, day)
}

func ambiguousMessage(candidates []persistence.Medication) string {
	lines := make([]string, 0, len(candidates)+2)
	lines = append(lines, "Encontrei mais de um. Qual deles?")
	for _, candidate := range candidates {
		lines = append(lines, medicationLine(candidate))
	}
	lines = append(lines, "Digite o numero (id) do medicamento.")
	return strings.Join(lines, "\n")
}

func formatHistory(entries []persistence.DoseConfirmation, names map[int64]string) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Ultimas doses confirmadas:")
	for _, entry := range entries {
		name := names[entry.MedicationID]
		if name == "" {
			name = fmt.Sprintf("medicamento %d", entry.MedicationID)
		}
		line := fmt.Sprintf("%s - %s: previsto %s, tomado %s", entry.Date, name, entry.Scheduled, entry.Actual)
		if entry.AdjustedNext != nil {
			line += fmt.Sprintf(" (proxima ajustada para %s)", *entry.AdjustedNext)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatStatus(total, active int, next string) string {
	if total == 0 {
		return promptNoMedications
	}
	return fmt.Sprintf("Voce tem %d medicamento(s) cadastrado(s), %d ativo(s).\n%s", total, active, next)
}

func notFoundMessage(token string) string {
	return fmt.Sprintf("Nao encontrei nenhum medicamento chamado \"%s\". Digite \"listar\" para ver os cadastrados.", token)
}
