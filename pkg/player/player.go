// Package player orchestrates scenario replay: loading, device preparation,
// sequential action execution, timing fidelity, and report finalization.
package player

import (
	"time"

	"github.com/google/uuid"

	"github.com/droidloop/droidloop/internal/logger"
	"github.com/droidloop/droidloop/pkg/dispatch"
	"github.com/droidloop/droidloop/pkg/execution"
	"github.com/droidloop/droidloop/pkg/report"
	"github.com/droidloop/droidloop/pkg/scenario"
)

// settlePause is the fixed wait after the best-effort screen-on request.
const settlePause = time.Second

// Player replays one recorded scenario at a time against one device. It owns
// its dispatcher, execution context, and report; none of them may be shared
// across concurrent replays.
type Player struct {
	deviceID   string
	cfg        execution.Config
	au         dispatch.Automator
	dispatcher *dispatch.Dispatcher
	log        logger.Logger

	sleep func(time.Duration)
	now   func() time.Time
}

// New builds a player for the given collaborator. deviceID may be empty, in
// which case the device recorded in the scenario is used. An invalid config
// is a programmer error and fails construction.
func New(au dispatch.Automator, deviceID string, cfg execution.Config, log logger.Logger) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Player{
		deviceID:   deviceID,
		cfg:        cfg,
		au:         au,
		dispatcher: dispatch.NewDispatcher(au, log),
		log:        log,
		sleep:      time.Sleep,
		now:        time.Now,
	}, nil
}

// Replay executes the scenario at path and always returns a finalized
// summary. Load, device, and action failures surface through the report's
// success flag, errors list, and per-action statuses, never as an error.
func (p *Player) Replay(scenarioPath string) *report.Summary {
	start := p.now()
	rep := report.New()
	replayID := uuid.NewString()

	p.log.Info("starting replay", "scenario", scenarioPath, "replay_id", replayID)
	p.run(scenarioPath, rep)

	duration := p.now().Sub(start).Seconds()
	summary := rep.Generate(duration)
	p.log.Info("replay finished",
		"replay_id", replayID,
		"success", summary.Success,
		"total", summary.Execution.TotalActions,
		"failed", summary.Execution.FailedActions)
	return summary
}

// run performs the replay body. Every failure path lands in the report.
func (p *Player) run(scenarioPath string, rep *report.Report) {
	s, err := scenario.Load(scenarioPath)
	if err != nil {
		rep.AddGlobalError("replay error: " + err.Error())
		return
	}
	rep.SetScenarioMetadata(s)

	deviceID := p.deviceID
	if deviceID == "" {
		deviceID = s.DeviceID
	}

	if p.cfg.WaitForScreenOn {
		p.ensureDeviceReady(deviceID)
	}

	ctx := execution.NewContext(deviceID, p.cfg, p.au, p.log)
	for i, act := range s.Actions {
		res := ctx.Execute(act, i, p.dispatcher)
		rep.AddActionResult(res)

		if p.cfg.StopOnError && res.Status != report.StatusSuccess {
			p.log.Warn("stopping replay on error", "action", i, "tool", act.Tool)
			return
		}

		// Recorded gap precedes the next action; nothing follows the last.
		if i < len(s.Actions)-1 {
			p.applyDelay(s.Actions[i+1])
		}
	}
}

// ensureDeviceReady issues a best-effort screen-on and settle pause.
// Failures here are logged, never fatal.
func (p *Player) ensureDeviceReady(deviceID string) {
	params := map[string]any{}
	if deviceID != "" && deviceID != "unknown" {
		params["device_id"] = deviceID
	}
	if _, err := p.dispatcher.Dispatch("screen_on", params); err != nil {
		p.log.Warn("could not ensure device ready", "error", err)
		return
	}
	p.sleep(settlePause)
}

// applyDelay sleeps for the next action's recorded gap, scaled inversely by
// the speed multiplier. Non-positive delays are skipped.
func (p *Player) applyDelay(next scenario.Action) {
	if next.DelayBeforeMs <= 0 {
		return
	}
	seconds := float64(next.DelayBeforeMs) / 1000.0 / p.cfg.SpeedMultiplier
	if seconds <= 0 {
		return
	}
	p.sleep(time.Duration(seconds * float64(time.Second)))
}
