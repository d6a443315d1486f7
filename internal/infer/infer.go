// Package infer is the heuristic text-inference engine. Given freeform
// task text it guesses a priority, a schedule bucket, and a duration in
// minutes, each with a short human-readable justification, and returns
// the text with the matched scheduling/urgency keywords stripped out.
//
// Matching is keyword-class based and runs on a per-rune lowercased copy
// of the input so that accented keywords ("presentación", "miércoles")
// match correctly. The engine is pure and deterministic.
package infer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/todone/todone/internal/models"
)

// Priority keyword classes, checked in order. First match wins.
var (
	urgencyWords = phrases(
		"urgente", "importante", "crítico", "asap", "ya", "deadline",
		"vence", "expira", "jefe", "cliente", "board",
	)
	contextWords = phrases(
		"propuesta", "contrato", "factura", "pago", "emergencia",
		"error", "bug", "caído", "roto",
	)
	deferralWords = phrases(
		"cuando pueda", "algún día", "eventualmente", "no urge",
		"tranqui", "opcional", "si puedo",
	)
)

// Schedule keyword classes, checked in order.
var (
	todayWords = phrases(
		"hoy", "today", "ahora", "ya mismo", "esta tarde", "esta mañana",
	)
	tomorrowWords = phrases("mañana", "tomorrow")
	weekWords     = phrases("esta semana", "this week", "estos días")
	weekdayWords  = phrases(
		"lunes", "martes", "miércoles", "jueves", "viernes",
		"sábado", "domingo",
	)
	nextWeekWords = phrases("semana que viene", "próxima semana")
)

// Duration keyword classes, checked in order. An explicit "<N> min" or
// "<N> h" anywhere in the text overrides all of them.
var (
	actionVerbs = phrases(
		"llamar", "contestar", "responder", "enviar", "mandar",
		"confirmar", "comprar", "chequear",
	)
	channelWords     = phrases("email", "mail", "mensaje", "whatsapp")
	callWords        = phrases("llamar", "call")
	deliverableWords = phrases(
		"presentación", "informe", "reporte", "propuesta", "proyecto",
		"estrategia", "auditoría",
	)
	bigDeliverableWords = phrases("presentación", "propuesta")
	prepVerbs           = phrases(
		"preparar", "armar", "escribir", "diseñar", "desarrollar",
		"crear", "investigar", "programar", "planificar", "redactar",
	)
	technicalVerbs = phrases("diseñar", "desarrollar", "programar")
	reviewWords    = phrases(
		"revisar", "leer", "analizar", "reunión", "meeting", "call",
		"sync", "entrevista",
	)
	meetingWords = phrases("reunión", "meeting", "call", "sync")
)

// Keyword classes stripped from the cleaned text, applied in order. Only
// urgency/deferral and scheduling words are stripped; duration nouns and
// verbs stay because they carry the task's meaning.
var stripClasses = [][][]rune{
	phrases(
		"urgente", "importante", "crítico", "asap", "ya", "cuando pueda",
		"algún día", "eventualmente", "no urge", "tranqui", "opcional",
		"si puedo",
	),
	phrases(
		"hoy", "today", "ahora", "ya mismo", "esta tarde", "esta mañana",
		"mañana", "tomorrow",
	),
	phrases(
		"esta semana", "this week", "estos días", "semana que viene",
		"próxima semana",
	),
	phrases(
		"lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
		"domingo",
	),
}

var (
	explicitDuration = regexp.MustCompile(`(\d+)\s*(min(?:utos?)?|h(?:oras?)?|hora)`)
	stripDuration    = regexp.MustCompile(`\d+\s*(?:min(?:utos?)?|h(?:oras?)?|hora)\b`)
)

// Infer runs the heuristic rules over text and returns the structured
// guess. Unset fields stay at their zero values; Reason fields are empty
// exactly when the corresponding field is unset.
func Infer(text string) *models.Estimate {
	orig := []rune(strings.TrimSpace(text))
	lo := lowerRunes(orig)

	est := &models.Estimate{CleanText: string(orig)}

	switch {
	case contains(lo, urgencyWords):
		est.Priority = models.PriorityHigh
		est.PriorityReason = "Detecté urgencia"
	case contains(lo, contextWords):
		est.Priority = models.PriorityHigh
		est.PriorityReason = "Contexto importante"
	case contains(lo, deferralWords):
		est.Priority = models.PriorityLow
		est.PriorityReason = "No parece urgente"
	}

	switch {
	case contains(lo, todayWords):
		est.ScheduledFor = models.BucketToday
		est.ScheduleReason = "Mencionás hoy"
	case contains(lo, tomorrowWords):
		// "tomorrow" lands in the week bucket: the model only has
		// today and this-week, and tomorrow is not today.
		est.ScheduledFor = models.BucketWeek
		est.ScheduleReason = "Mencionás mañana"
	case contains(lo, weekWords):
		est.ScheduledFor = models.BucketWeek
		est.ScheduleReason = "Esta semana"
	case contains(lo, weekdayWords):
		day, _ := firstMatch(lo, weekdayWords)
		est.ScheduledFor = models.BucketWeek
		est.ScheduleReason = "Mencionás " + day
	case contains(lo, nextWeekWords):
		est.ScheduledFor = models.BucketWeek
		est.ScheduleReason = "Próxima semana"
	case est.Priority == models.PriorityHigh:
		est.ScheduledFor = models.BucketToday
		est.ScheduleReason = "Es urgente → hoy"
	}

	switch {
	case contains(lo, actionVerbs):
		switch {
		case contains(lo, channelWords):
			est.Minutes, est.MinutesReason = 5, "Mensaje rápido"
		case contains(lo, callWords):
			est.Minutes, est.MinutesReason = 15, "Llamada típica"
		default:
			est.Minutes, est.MinutesReason = 10, "Tarea rápida"
		}
	case contains(lo, deliverableWords):
		if contains(lo, bigDeliverableWords) {
			est.Minutes, est.MinutesReason = 180, "Presentación compleja"
		} else {
			est.Minutes, est.MinutesReason = 240, "Documento largo"
		}
	case contains(lo, prepVerbs):
		if contains(lo, technicalVerbs) {
			est.Minutes, est.MinutesReason = 120, "Trabajo técnico"
		} else {
			est.Minutes, est.MinutesReason = 90, "Requiere preparación"
		}
	case contains(lo, reviewWords):
		if contains(lo, meetingWords) {
			est.Minutes, est.MinutesReason = 45, "Reunión estándar"
		} else {
			est.Minutes, est.MinutesReason = 30, "Revisión/análisis"
		}
	}

	if m := explicitDuration.FindStringSubmatch(string(lo)); m != nil {
		v, err := strconv.Atoi(m[1])
		if err == nil {
			if strings.HasPrefix(m[2], "h") {
				est.Minutes = v * 60
				est.MinutesReason = fmt.Sprintf("Mencionás %dh", v)
			} else {
				est.Minutes = v
				est.MinutesReason = fmt.Sprintf("Mencionás %d min", v)
			}
		}
	}

	est.CleanText = clean(orig, lo)
	return est
}

// clean strips the scheduling, urgency, and explicit-duration keyword
// spans from the original-cased text, collapses whitespace, and trims
// leading/trailing separators. Falls back to the trimmed original when
// stripping removes everything.
func clean(orig, lo []rune) string {
	cur, curLo := orig, lo
	for _, class := range stripClasses {
		cur, curLo = removeSpans(cur, curLo, findAll(curLo, class))
	}
	cur, _ = removeSpans(cur, curLo, durationSpans(curLo))

	cl := strings.Join(strings.Fields(string(cur)), " ")
	cl = strings.Trim(cl, " ,-·")
	if cl == "" {
		return strings.TrimSpace(string(orig))
	}
	return cl
}

type span struct{ start, end int }

// findAll returns all non-overlapping keyword spans in lo, scanning left
// to right and trying the class's phrases in their listed order at each
// position. Matches must sit on word boundaries.
func findAll(lo []rune, class [][]rune) []span {
	var out []span
	for i := 0; i < len(lo); {
		if end, ok := matchAt(lo, i, class); ok {
			out = append(out, span{i, end})
			i = end
			continue
		}
		i++
	}
	return out
}

// contains reports whether any phrase of the class occurs in lo on word
// boundaries.
func contains(lo []rune, class [][]rune) bool {
	for i := range lo {
		if _, ok := matchAt(lo, i, class); ok {
			return true
		}
	}
	return false
}

// firstMatch returns the first matching phrase of the class, for reasons
// that quote the matched word back at the user.
func firstMatch(lo []rune, class [][]rune) (string, bool) {
	for i := range lo {
		if end, ok := matchAt(lo, i, class); ok {
			return string(lo[i:end]), true
		}
	}
	return "", false
}

func matchAt(lo []rune, i int, class [][]rune) (end int, ok bool) {
	if i > 0 && isWordRune(lo[i-1]) {
		return 0, false
	}
	for _, p := range class {
		if len(p) > len(lo)-i {
			continue
		}
		if !runesEqual(lo[i:i+len(p)], p) {
			continue
		}
		end = i + len(p)
		if end < len(lo) && isWordRune(lo[end]) {
			continue
		}
		return end, true
	}
	return 0, false
}

// durationSpans returns the rune spans of explicit "<N> min"/"<N> h"
// mentions in lo. The regexp works in bytes, so offsets are converted.
func durationSpans(lo []rune) []span {
	s := string(lo)
	var out []span
	for _, m := range stripDuration.FindAllStringIndex(s, -1) {
		out = append(out, span{
			utf8.RuneCountInString(s[:m[0]]),
			utf8.RuneCountInString(s[:m[1]]),
		})
	}
	return out
}

// removeSpans drops the given rune spans from both the original-cased
// and lowercased copies, keeping their indexes aligned. Spans must be
// sorted and non-overlapping, as findAll produces them.
func removeSpans(orig, lo []rune, spans []span) ([]rune, []rune) {
	if len(spans) == 0 {
		return orig, lo
	}
	no := make([]rune, 0, len(orig))
	nl := make([]rune, 0, len(lo))
	prev := 0
	for _, sp := range spans {
		no = append(no, orig[prev:sp.start]...)
		nl = append(nl, lo[prev:sp.start]...)
		prev = sp.end
	}
	no = append(no, orig[prev:]...)
	nl = append(nl, lo[prev:]...)
	return no, nl
}

// lowerRunes lowercases rune by rune so indexes stay aligned with the
// original text.
func lowerRunes(rs []rune) []rune {
	lo := make([]rune, len(rs))
	for i, r := range rs {
		lo[i] = unicode.ToLower(r)
	}
	return lo
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func phrases(ps ...string) [][]rune {
	out := make([][]rune, len(ps))
	for i, p := range ps {
		out[i] = []rune(p)
	}
	return out
}
