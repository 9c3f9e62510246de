// Command portal-sandbox runs a local world without the hub or any sockets
// and renders it in the terminal. It exists to eyeball portal lifecycles,
// threading, and forced collapses without wiring up a browser client.
//
// Keys: arrows steer, space pauses, n steps one tick while paused,
// r restarts the run, q or ESC quits.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	server "warp-and-wind/server"
)

const pilotID = "pilot"

var frameDuration = time.Second / time.Duration(server.TickRate())

type sandbox struct {
	screen tcell.Screen
	world  *server.World
	staged []server.Command

	pulse  *gween.Tween
	level  float32
	rising bool

	paused bool
}

func newSandbox(cfg server.WorldConfig) (*sandbox, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	world := server.NewWorld(cfg, nil)
	if _, err := world.AddSnake(pilotID); err != nil {
		screen.Fini()
		return nil, err
	}

	return &sandbox{
		screen: screen,
		world:  world,
		pulse:  gween.New(0.25, 1, 0.6, ease.InOutQuad),
		level:  0.25,
		rising: true,
	}, nil
}

func (sb *sandbox) run() {
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 32)
	go func() {
		for {
			eventChan <- sb.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !sb.handleInput(ev) {
				return
			}

		case <-ticker.C:
			sb.updatePulse()
			if !sb.paused {
				sb.step()
			}
			sb.draw()
		}
	}
}

func (sb *sandbox) step() {
	cmds := sb.staged
	sb.staged = nil
	sb.world.Step(time.Now(), frameDuration.Seconds(), cmds)
}

// updatePulse runs the ping-pong glow used by spawning and collapsing rifts.
func (sb *sandbox) updatePulse() {
	value, finished := sb.pulse.Update(float32(frameDuration.Seconds()))
	sb.level = value
	if finished {
		if sb.rising {
			sb.pulse = gween.New(1, 0.25, 0.6, ease.InOutQuad)
		} else {
			sb.pulse = gween.New(0.25, 1, 0.6, ease.InOutQuad)
		}
		sb.rising = !sb.rising
	}
}

func (sb *sandbox) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			sb.stageTurn(server.FacingUp)
		case tcell.KeyDown:
			sb.stageTurn(server.FacingDown)
		case tcell.KeyLeft:
			sb.stageTurn(server.FacingLeft)
		case tcell.KeyRight:
			sb.stageTurn(server.FacingRight)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				sb.staged = append(sb.staged, server.Command{
					ActorID:  pilotID,
					Type:     server.CommandRestart,
					IssuedAt: time.Now(),
				})
			case ' ':
				sb.paused = !sb.paused
			case 'n':
				if sb.paused {
					sb.step()
				}
			}
		}

	case *tcell.EventResize:
		sb.screen.Sync()
	}

	return true
}

func (sb *sandbox) stageTurn(facing server.FacingDirection) {
	sb.staged = append(sb.staged, server.Command{
		ActorID:  pilotID,
		Type:     server.CommandTurn,
		IssuedAt: time.Now(),
		Turn:     &server.TurnCommand{Facing: facing},
	})
}

// Field cells render at a one-cell offset so the wall border has room.
const originX, originY = 1, 1

func (sb *sandbox) draw() {
	snapshot := sb.world.Snapshot()
	sb.screen.Clear()

	sb.drawBorder(snapshot.Cols, snapshot.Rows)

	hazardStyle := map[server.HazardType]tcell.Style{
		server.HazardRock:     tcell.StyleDefault.Foreground(tcell.NewRGBColor(150, 150, 150)),
		server.HazardRiftScar: tcell.StyleDefault.Foreground(tcell.NewRGBColor(150, 60, 190)),
	}
	for _, h := range snapshot.Hazards {
		glyph := '^'
		if h.Type == server.HazardRiftScar {
			glyph = '~'
		}
		sb.setCell(h.Position, glyph, hazardStyle[h.Type])
	}

	foodStyle := tcell.StyleDefault.Foreground(tcell.NewRGBColor(80, 220, 80))
	for _, f := range snapshot.Foods {
		sb.setCell(f.Position, '*', foodStyle)
	}

	for _, p := range snapshot.Portals {
		style := sb.portalStyle(p)
		sb.setCell(p.A.Position, 'O', style)
		sb.setCell(p.B.Position, 'O', style)
	}

	for _, s := range snapshot.Snakes {
		sb.drawSnake(s)
	}

	sb.drawStatus(snapshot)
	sb.screen.Show()
}

func (sb *sandbox) drawBorder(cols, rows int) {
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(110, 110, 110))
	for x := -1; x <= cols; x++ {
		sb.setCell(server.GridPos{Col: x, Row: -1}, '#', style)
		sb.setCell(server.GridPos{Col: x, Row: rows}, '#', style)
	}
	for y := 0; y < rows; y++ {
		sb.setCell(server.GridPos{Col: -1, Row: y}, '#', style)
		sb.setCell(server.GridPos{Col: cols, Row: y}, '#', style)
	}
}

// portalStyle maps a pair's lifecycle phase to its glow. Spawning and
// collapsing pairs breathe with the shared pulse; active pairs hold steady
// until their clock runs long, then shade toward amber as a warning.
func (sb *sandbox) portalStyle(p server.Portal) tcell.Style {
	level := sb.level
	switch p.Phase {
	case server.PortalPhaseSpawning:
		return tcell.StyleDefault.Foreground(tcell.NewRGBColor(
			int32(40+60*level), int32(80+120*level), int32(120+135*level)))
	case server.PortalPhaseCollapsing:
		return tcell.StyleDefault.Foreground(tcell.NewRGBColor(
			int32(120+135*level), int32(30+40*level), int32(30+40*level)))
	default:
		if p.Progress > 0.75 {
			return tcell.StyleDefault.Foreground(tcell.NewRGBColor(230, 180, 60))
		}
		return tcell.StyleDefault.Foreground(tcell.NewRGBColor(60, 220, 220))
	}
}

func (sb *sandbox) drawSnake(s server.SnakeView) {
	bodyStyle := tcell.StyleDefault.Foreground(tcell.NewRGBColor(210, 210, 120))
	warpStyle := tcell.StyleDefault.Foreground(tcell.NewRGBColor(120, 230, 230))
	headStyle := tcell.StyleDefault.Foreground(tcell.NewRGBColor(250, 250, 160)).Bold(true)
	if !s.Alive {
		bodyStyle = tcell.StyleDefault.Foreground(tcell.NewRGBColor(120, 120, 120))
		warpStyle = bodyStyle
		headStyle = bodyStyle
	} else if s.ImmunityMS > 0 && sb.level > 0.6 {
		headStyle = tcell.StyleDefault.Foreground(tcell.NewRGBColor(250, 220, 60)).Bold(true)
	}

	for i := len(s.Segments) - 1; i >= 0; i-- {
		style := bodyStyle
		if s.Split.Active && i < s.Split.ExitSideCount {
			style = warpStyle
		}
		glyph := 'o'
		if i == 0 {
			glyph = '@'
			style = headStyle
		}
		sb.setCell(s.Segments[i], glyph, style)
	}
}

func (sb *sandbox) drawStatus(snapshot server.WorldSnapshot) {
	score := 0
	for _, s := range snapshot.Snakes {
		if s.ID == pilotID {
			score = s.Score
		}
	}

	state := "running"
	if sb.paused {
		state = "paused"
	} else if !snapshot.Running {
		state = "over - press r"
	}

	line := fmt.Sprintf("tick %d  run %d  biome %s  score %d  portals %d  [%s]",
		snapshot.Tick, snapshot.Run, snapshot.Biome, score, len(snapshot.Portals), state)
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(200, 200, 200))
	for i, r := range line {
		sb.screen.SetContent(i, originY+snapshot.Rows+1, r, nil, style)
	}
}

func (sb *sandbox) setCell(pos server.GridPos, glyph rune, style tcell.Style) {
	sb.screen.SetContent(originX+pos.Col, originY+pos.Row, glyph, nil, style)
}

func main() {
	cfg := server.DefaultWorldConfig()
	if seed := os.Getenv("WARP_SEED"); seed != "" {
		cfg.Seed = seed
	}

	sb, err := newSandbox(cfg)
	if err != nil {
		log.Fatalf("sandbox init failed: %v", err)
	}
	sb.run()
	sb.screen.Fini()
}
