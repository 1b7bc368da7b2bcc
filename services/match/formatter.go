package match

import (
	"fmt"
	"time"

	"benficabot/lib/timezone"
)

// Custom server emoji used in every bot message.
const (
	EmojiPulhas = "<:pulhas:867780231116095579>"
	EmojiSLB    = "<:slb:240116451782950914>"
)

// NoMatchMessage is what commands reply with when no fixture is cached
// and a refresh found nothing either.
const NoMatchMessage = EmojiPulhas + " Não há jogos agendados no momento. " +
	"Usa /actualizar_data para tentar obter novos dados."

var weekdays = map[time.Weekday]string{
	time.Monday:    "Segunda-feira",
	time.Tuesday:   "Terça-feira",
	time.Wednesday: "Quarta-feira",
	time.Thursday:  "Quinta-feira",
	time.Friday:    "Sexta-feira",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

// FormatCountdown renders the time remaining until kickoff. On match
// day the message drops the day count and leads with "É hoje!".
func FormatCountdown(record Record, now time.Time) string {
	kickoff := record.Kickoff.In(timezone.Location)
	now = now.In(timezone.Location)

	total := int(kickoff.Sub(now).Seconds())
	days := total / 86400
	total %= 86400
	hours := total / 3600
	total %= 3600
	minutes := total / 60
	seconds := total % 60

	sameDay := kickoff.Year() == now.Year() && kickoff.YearDay() == now.YearDay()
	if sameDay {
		return fmt.Sprintf(
			"%s É hoje! Já só falta(m) %d hora(s), %d minuto(s) e %d segundo(s) "+
				"para ver o Glorioso de novo! %s",
			EmojiPulhas, hours, minutes, seconds, EmojiSLB,
		)
	}
	return fmt.Sprintf(
		"%s Falta(m) %d dia(s), %d hora(s), %d minuto(s) e %d segundo(s) "+
			"para ver o Glorioso de novo! %s",
		EmojiPulhas, days, hours, minutes, seconds, EmojiSLB,
	)
}

// FormatSchedule renders the fixture's date and opponent. The kickoff
// time uses Discord's <t:...:t> markup so each reader sees it in their
// own timezone.
func FormatSchedule(record Record) string {
	kickoff := record.Kickoff.In(timezone.Location)

	sentence := fmt.Sprintf(
		"%s %s, dia %d às <t:%d:t>, %s vs %s, no %s para o/a %s",
		EmojiPulhas,
		weekdays[kickoff.Weekday()],
		kickoff.Day(),
		kickoff.Unix(),
		EmojiSLB,
		record.Adversary,
		record.Location,
		record.Competition,
	)
	if record.TVChannel != "" {
		sentence += " 📺 " + record.TVChannel
	}
	return sentence
}
