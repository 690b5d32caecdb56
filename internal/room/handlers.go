package room

import (
	"encoding/json"
	"errors"

	"github.com/questline/go-geoquest/internal/world"
	"github.com/questline/go-geoquest/internal/zones"
)

func (r *Room) handleSessionJoin(connID string, data []byte) error {
	var msg sessionJoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding session join", err)
	}

	p, err := r.sess.Join(connID, msg.UserID, msg.Name, msg.Geo)
	if err != nil {
		return err
	}

	r.send(connID, MsgSessionReady, sessionReadyMsg{PlayerID: p.ID})
	r.send(connID, MsgWorldVisible, r.visibleWorld(p))
	return nil
}

func (r *Room) handleSessionLeave(connID string, data []byte) error {
	var msg sessionLeaveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding session leave", err)
	}
	delete(r.pending, connID)
	// A duplicate leave (client frame plus the edge's synthesized one)
	// is not an error.
	if err := r.sess.Leave(connID, msg.Consented); err != nil && !errors.Is(err, world.ErrPlayerNotFound) {
		return err
	}
	return nil
}

func (r *Room) handleMove(connID string, p *world.Player, data []byte) error {
	var msg moveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding move", err)
	}

	target := world.Position{X: msg.X, Y: msg.Y}.Clamp(r.state.Settings.Width, r.state.Settings.Height)
	if p.Pos.Distance(target) > r.cfg.MaxMoveStep {
		r.send(connID, MsgError, errorMsg{Code: CodeMoveInvalid, Retryable: true})
		return nil
	}

	p.Pos = target
	if msg.State != "" {
		if activity, err := world.ParseActivity(msg.State); err == nil {
			p.Activity = activity
		}
	} else {
		p.Activity = world.ActivityMoving
	}

	for _, tr := range r.tracker.Update(p) {
		r.sendTransition(connID, tr)
	}

	r.markPending(connID)
	return nil
}

func (r *Room) handlePowerDetail(connID string, p *world.Player, data []byte) error {
	var msg powerMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding power interact", err)
	}

	pow, err := r.pow.Interact(p, msg.PowerID)
	if err != nil {
		return err
	}
	p.Activity = world.ActivityInteracting

	r.send(connID, MsgPowerDetails, pow)
	return nil
}

func (r *Room) handlePowerCapture(connID string, p *world.Player, data []byte) error {
	var msg captureMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding power capture", err)
	}

	p.Activity = world.ActivityCapturing
	res, err := r.pow.Capture(p, msg.PowerID, msg.Response)
	if err != nil {
		return err
	}

	if !res.Captured {
		r.send(connID, MsgPowerFailed, powerCapturedMsg{PowerID: msg.PowerID})
		return nil
	}

	r.send(connID, MsgPowerCaptured, powerCapturedMsg{PowerID: msg.PowerID, Reward: res.Reward})
	// Everyone nearby should see the power wink out.
	r.markAllPending()
	return nil
}

func (r *Room) handleZoneEnter(connID string, p *world.Player, data []byte) error {
	var msg zoneMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding zone enter", err)
	}
	tr, err := r.tracker.Enter(p, msg.ZoneID)
	if err != nil {
		return err
	}
	r.sendTransition(connID, tr)
	return nil
}

func (r *Room) handleZoneExit(connID string, p *world.Player, data []byte) error {
	var msg zoneMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding zone exit", err)
	}
	tr, err := r.tracker.Exit(p, msg.ZoneID)
	if err != nil {
		return err
	}
	r.sendTransition(connID, tr)
	return nil
}

func (r *Room) sendTransition(connID string, tr zones.Transition) {
	msgType := MsgZoneEntered
	if tr.Kind == zones.Exited {
		msgType = MsgZoneExited
	}
	r.send(connID, msgType, zoneEventMsg{ZoneID: tr.ZoneID})
}

func (r *Room) handlePlayerStatus(p *world.Player, data []byte) error {
	var msg statusMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding player status", err)
	}
	activity, err := world.ParseActivity(msg.State)
	if err != nil {
		return badRequest("decoding player status", err)
	}
	p.Activity = activity
	return nil
}

func (r *Room) handleExpJoin(p *world.Player, data []byte) error {
	var msg expJoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding experience join", err)
	}
	_, err := r.exp.Join(p, msg.ExperienceID)
	return err
}

func (r *Room) handleExpPhase(p *world.Player, data []byte) error {
	var msg expPhaseMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding experience phase", err)
	}
	return r.exp.CompletePhase(p, msg.InstanceID, msg.PhaseIndex, msg.Submission)
}

func (r *Room) handleExpLeave(p *world.Player, data []byte) error {
	var msg expLeaveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding experience leave", err)
	}
	return r.exp.Leave(p, msg.InstanceID)
}

func (r *Room) handlePing(connID string, data []byte) error {
	var msg pingMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return badRequest("decoding ping", err)
	}
	r.send(connID, MsgPong, pongMsg{
		Time:       msg.Time,
		ServerTime: r.clock.Now().UnixMilli(),
	})
	return nil
}
