package coach

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/pkg/jsonscan"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
	"github.com/capitalize-ai/fitness-coach/pkg/metrics"
)

// ParseOutcome is the parser's verdict on a reply.
type ParseOutcome string

const (
	ParseFound     ParseOutcome = "found"
	ParseAbsent    ParseOutcome = "absent"
	ParseMalformed ParseOutcome = "malformed"
)

// ParseResult is the decided action and the user-visible text.
type ParseResult struct {
	Action  *model.Action
	Text    string
	Outcome ParseOutcome
}

// Parser extracts the structured action embedded in a model reply.
type Parser struct {
	logger *logger.Logger
}

// NewParser creates a parser.
func NewParser(log *logger.Logger) *Parser {
	return &Parser{logger: log.Named("parser")}
}

// Parse never fails. Without a well-formed action block the action is NONE and the
// text is the reply unchanged; otherwise every json fence is removed and the rest trimmed.
func (p *Parser) Parse(reply string) ParseResult {
	res := p.parse(reply)
	metrics.ActionParseTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

func (p *Parser) parse(reply string) ParseResult {
	none := ParseResult{Action: &model.Action{Type: model.ActionNone}, Text: reply}

	blocks := jsonscan.Fenced(reply)
	if len(blocks) == 0 {
		none.Outcome = ParseAbsent
		return none
	}

	var err error
	for _, block := range blocks {
		var action *model.Action
		if action, err = decodeAction(block); err == nil {
			return ParseResult{Action: action, Text: jsonscan.StripFenced(reply), Outcome: ParseFound}
		}
	}

	p.logger.Warn("discarding malformed action block", zap.Error(err), zap.Int("blocks", len(blocks)))
	none.Outcome = ParseMalformed
	return none
}

type actionEnvelope struct {
	Action *model.Action `json:"action"`
}

func decodeAction(block string) (*model.Action, error) {
	candidates := jsonscan.Objects(block)
	if len(candidates) == 0 {
		return nil, errMalformed("no JSON object in block")
	}

	var env actionEnvelope
	if err := json.Unmarshal([]byte(candidates[0]), &env); err != nil {
		return nil, err
	}
	if env.Action == nil {
		return nil, errMalformed(`missing "action" key`)
	}

	env.Action.Type = model.ActionType(strings.ToUpper(strings.TrimSpace(string(env.Action.Type))))
	if !env.Action.Type.Valid() {
		return nil, errMalformed("unknown action type " + string(env.Action.Type))
	}
	if env.Action.Parameters == nil {
		env.Action.Parameters = map[string]any{}
	}
	return env.Action, nil
}

type errMalformed string

func (e errMalformed) Error() string { return string(e) }
