package bot

// Fixed user-facing messages. Handlers never surface raw errors, every
// failure maps to one of these.
const (
	ErrorCoversFetch     = "❌ Erro ao obter capas dos jornais."
	ErrorMatchDataUpdate = "❌ Erro ao actualizar data do jogo."
	ErrorMatchCountdown  = "❌ Erro ao calcular tempo até ao jogo."
	ErrorMatchDate       = "❌ Erro ao obter data do jogo."
	ErrorCalendarFetch   = "❌ Erro ao obter calendário."
	ErrorEventCreate     = "❌ Erro ao criar evento"
	ErrorGuildOnly       = "❌ Este comando só funciona em servidores."
	ErrorNoUpcoming      = "❌ Não há jogos futuros disponíveis no calendário. " +
		"Verifica mais tarde."

	SuccessMatchDataUpdated = "✅ Data do jogo actualizada. " +
		"Testa com `/quando_joga` ou `/quanto_falta`"

	RateLimitedMessage = "⏳ Este comando está limitado. Tenta outra vez"

	HelpMessage = "📋 **Comandos Disponíveis**\n\n" +
		"**Capas de Jornais:**\n" +
		"`/capas` - Mostrar capas dos jornais desportivos\n\n" +
		"**Informação de Jogos:**\n" +
		"`/quando_joga` - Ver quando joga o Benfica\n" +
		"`/quanto_falta` - Tempo até ao próximo jogo\n" +
		"`/actualizar_data` - Atualizar dados do próximo jogo\n" +
		"`/calendario [quantidade]` - Próximos jogos (padrão: 5, máx: 10)\n" +
		"`/criar_evento` - Criar evento no Discord para o próximo jogo\n\n" +
		"**Outros:**\n" +
		"`/ajuda` - Mostrar esta mensagem de ajuda"
)
