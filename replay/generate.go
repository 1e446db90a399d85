package replay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"holdem-tourney/apps/server/internal/codec"
	"holdem-tourney/apps/server/internal/protocol"
	"holdem-tourney/holdem"
)

const defaultTableID = "replay_local"

// GenerateReplayTape replays a HandSpec's recorded actions against a forced
// deck/dealer and returns the resulting table-state/turn-begin/hand-result
// envelope tape (supplements spec.md's dropped hand-history UI: the
// reconstruction itself has no Non-goal excluding it).
func GenerateReplayTape(spec HandSpec) (*ReplayTape, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	game, err := holdem.NewGame(holdem.Config{
		MaxPlayers:        int(ns.table.MaxPlayers),
		MinPlayers:        2,
		SmallBlind:        ns.table.SB,
		BigBlind:          ns.table.BB,
		Ante:              ns.table.Ante,
		Seed:              seedFromSpec(spec.RNG),
		ForcedDealerChair: &ns.dealerChair,
		DeckOverride:      ns.deck,
	})
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}

	for _, seat := range ns.seats {
		if err := game.SitDown(seat.chair, seat.userID, seat.stack, false); err != nil {
			return nil, &ReplayError{StepIndex: -1, Reason: "seat_init_failed", Message: err.Error()}
		}
	}

	builder := newTapeBuilder(defaultTableID, ns)
	builder.addTableState(game.Snapshot())

	if err := game.StartHand(); err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "start_hand_failed", Message: err.Error()}
	}
	afterStart := game.Snapshot()
	builder.addTableState(afterStart)
	if afterStart.ActionChair != holdem.InvalidChair {
		builder.addTurnBegin(afterStart.ActionChair)
	}

	for stepIdx, action := range ns.actions {
		before := game.Snapshot()
		if before.ActionChair == holdem.InvalidChair {
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "no_action_expected",
				Message:   "hand is already complete; no further actions are allowed",
			}
		}
		if before.Phase != action.phase {
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "phase_mismatch",
				Message:   fmt.Sprintf("expected phase %s, got %s", phaseName(before.Phase), phaseName(action.phase)),
				Expected: &ExpectedState{
					ActionChair: before.ActionChair,
					Phase:       phaseName(before.Phase),
				},
			}
		}
		if before.ActionChair != action.chair {
			expected := expectedStateForChair(game, before.ActionChair)
			expected.Phase = phaseName(before.Phase)
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "out_of_turn",
				Message:   fmt.Sprintf("expected action chair %d, got %d", before.ActionChair, action.chair),
				Expected:  expected,
			}
		}
		if !isLegalAction(game, action.chair, action.action) {
			expected := expectedStateForChair(game, action.chair)
			expected.Phase = phaseName(before.Phase)
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "illegal_action",
				Message:   fmt.Sprintf("action %s is not legal for chair %d", actionName(action.action), action.chair),
				Expected:  expected,
			}
		}

		result, err := game.Act(action.chair, action.action, action.amountTo)
		if err != nil {
			expected := expectedStateForChair(game, action.chair)
			expected.Phase = phaseName(before.Phase)
			return nil, &ReplayError{
				StepIndex: int32(stepIdx),
				Reason:    "action_apply_failed",
				Message:   err.Error(),
				Expected:  expected,
			}
		}

		after := game.Snapshot()
		builder.addTableState(after)

		if result != nil {
			builder.addHandResult(result)
			break
		}

		if after.ActionChair != holdem.InvalidChair {
			builder.addTurnBegin(after.ActionChair)
		}
	}

	return &ReplayTape{
		TapeVersion: 1,
		TableID:     builder.tableID,
		HeroChair:   ns.heroChair,
		Events:      builder.events,
	}, nil
}

func isLegalAction(g *holdem.Game, chair uint16, action holdem.ActionType) bool {
	actions, _, err := g.LegalActions(chair)
	if err != nil {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func expectedStateForChair(g *holdem.Game, chair uint16) *ExpectedState {
	actions, minRaiseTo, err := g.LegalActions(chair)
	if err != nil {
		return &ExpectedState{ActionChair: chair}
	}
	snap := g.Snapshot()
	callAmount := int64(0)
	for _, ps := range snap.Players {
		if ps.Chair == chair {
			callAmount = snap.CurBet - ps.Bet
			if callAmount < 0 {
				callAmount = 0
			}
			break
		}
	}
	return &ExpectedState{
		ActionChair:  chair,
		LegalActions: legalActionNames(actions),
		MinRaiseTo:   minRaiseTo,
		CallAmount:   callAmount,
	}
}

type tapeBuilder struct {
	tableID string
	ns      normalizedSpec
	seq     uint64
	events  []ReplayEvent
}

func newTapeBuilder(tableID string, ns normalizedSpec) *tapeBuilder {
	return &tapeBuilder{
		tableID: tableID,
		ns:      ns,
		events:  make([]ReplayEvent, 0, 64),
	}
}

func (b *tapeBuilder) nickname(userID uint64) string {
	for _, seat := range b.ns.seats {
		if seat.userID == userID {
			return seat.name
		}
	}
	return ""
}

func (b *tapeBuilder) heroUserID() uint64 {
	if meta, ok := b.ns.seatByChair[b.ns.heroChair]; ok {
		return meta.userID
	}
	return 0
}

func (b *tapeBuilder) seatUserIDs() map[uint16]uint64 {
	out := make(map[uint16]uint64, len(b.ns.seats))
	for _, seat := range b.ns.seats {
		out[seat.chair] = seat.userID
	}
	return out
}

func (b *tapeBuilder) addTableState(snap holdem.Snapshot) {
	ts := codec.TableSnapshot(b.tableID, "", 0, b.nickname, snap, b.heroUserID())
	b.pushEnvelope(protocol.NewTableState(ts))
}

func (b *tapeBuilder) addTurnBegin(chair uint16) {
	meta, ok := b.ns.seatByChair[chair]
	if !ok {
		return
	}
	b.pushEnvelope(protocol.NewTurnBegin(protocol.TurnBegin{
		TableID:         b.tableID,
		UserID:          meta.userID,
		DeadlineEpochMs: int64(b.seq+1) * 1000,
		DurationMs:      1000,
	}))
}

func (b *tapeBuilder) addHandResult(result *holdem.SettlementResult) {
	hr := codec.HandResult(b.tableID, result, b.seatUserIDs())
	b.pushEnvelope(protocol.NewHandResult(hr))
}

func (b *tapeBuilder) pushEnvelope(env *protocol.ServerEnvelope) {
	b.seq++
	env.ServerSeq = b.seq
	env.ServerTsMs = int64(b.seq)
	bin, _ := json.Marshal(env)
	b.events = append(b.events, ReplayEvent{
		Type:        env.Type,
		Seq:         b.seq,
		Value:       env,
		EnvelopeB64: base64.StdEncoding.EncodeToString(bin),
	})
}
