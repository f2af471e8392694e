package conversation

const conversationColumns = `
	wc.conversation_id,
	wc.created_at,
	wc.last_message_at,
	wc.source_details,
	wc.conversation_evaluation,
	wc.meta,
	wc.conversation_intent,
	wc.salesiq_conversation_id,
	wc.lead_id,
	wc.zoho_ticket_id`

// conversationSource keeps one row per conversation id, the most recently
// active one, so paging runs over distinct conversations.
const conversationSource = `(
	SELECT * FROM (
		SELECT whatsapp_conversations.*,
			ROW_NUMBER() OVER (
				PARTITION BY conversation_id
				ORDER BY last_message_at DESC NULLS LAST, created_at DESC
			) AS dup_rank
		FROM whatsapp_conversations
	) ranked
	WHERE ranked.dup_rank = 1
) wc`

const messageAggregateJoin = `
LEFT JOIN (
	SELECT conversation_id, COUNT(*) AS message_count, MAX(created_at) AS last_message_time
	FROM whatsapp_messages
	GROUP BY conversation_id
) m ON m.conversation_id = wc.conversation_id`

// latestAssessmentJoin keeps one assessment per conversation, the most
// recently updated one.
const latestAssessmentJoin = `
LEFT JOIN (
	SELECT conversation_id, rating, updated_at,
		ROW_NUMBER() OVER (PARTITION BY conversation_id ORDER BY updated_at DESC, id DESC) AS rn
	FROM qa_assessments
) qa ON qa.conversation_id = wc.conversation_id AND qa.rn = 1`

const countQuery = `
SELECT COUNT(DISTINCT wc.conversation_id) AS total
FROM ` + conversationSource + `%s
%s`

const pageQuery = `
SELECT %s,
	COALESCE(m.message_count, 0) AS message_count,
	m.last_message_time
FROM ` + conversationSource + `%s%s
%s
ORDER BY %s
LIMIT %s OFFSET %s`

const getQuery = `
SELECT %s,
	COALESCE(m.message_count, 0) AS message_count,
	m.last_message_time
FROM ` + conversationSource + `%s
%s
LIMIT 1`

const messagesQuery = `
SELECT
	wm.id,
	wm.message_id,
	wm.conversation_id,
	wm.message_content,
	wm.created_at,
	wm.message_type,
	wm.direction,
	wm.agent_id,
	wm.intent,
	wm.sub_intent,
	wm.trace_id
FROM whatsapp_messages wm
WHERE wm.conversation_id = $1
ORDER BY wm.created_at ASC, wm.id ASC
LIMIT $2`

const intentOptionsQuery = `
SELECT DISTINCT %s AS intent
FROM whatsapp_conversations wc
%s
ORDER BY intent
LIMIT %s`

const messageTraceQuery = `
SELECT wm.id, wm.message_id, wm.conversation_id, wm.trace_id, wm.direction, wm.agent_id
FROM whatsapp_messages wm
JOIN whatsapp_conversations wc ON wm.conversation_id = wc.conversation_id
%s
LIMIT 1`

const scopeCountQuery = `
SELECT COUNT(*) AS total
FROM whatsapp_conversations wc
%s`
