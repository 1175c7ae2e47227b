package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/pose"
	"github.com/milk9111/animgraph/prefabs"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
)

const helpText = "left/right speed  space jump  G grounded  C stance  R reset  P pause  Y copy pose  S save"

type viewer struct {
	cfg       Config
	s         *session
	log       zerolog.Logger
	watcher   *prefabs.Watcher
	clipboard bool
	pose      *pose.Pose
	note      string
	noteTicks int
}

func newViewer(cfg Config, s *session, log zerolog.Logger) *viewer {
	return &viewer{cfg: cfg, s: s, log: log}
}

func (v *viewer) Update() error {
	dt := 1 / float32(ebiten.TPS())
	v.pollWatcher()

	speed := v.s.speed
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		speed += float64(dt)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		speed -= float64(dt)
	}
	if speed != v.s.speed {
		v.s.drive(speed)
	}
	v.s.set("jump", ebiten.IsKeyPressed(ebiten.KeySpace))

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		v.s.toggle("grounded")
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		v.s.cycleIndex("stance")
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.s.current().Reset()
		v.notify("reset")
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		v.s.paused = !v.s.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyY):
		v.copyPose()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		path, err := v.s.save(v.cfg.SaveDir)
		if err != nil {
			v.log.Error().Err(err).Msg("save machine")
			v.notify("save failed")
		} else {
			v.notify("saved " + path)
		}
	}

	v.pose = v.s.step(dt)
	if v.noteTicks > 0 {
		v.noteTicks--
	}
	return nil
}

func (v *viewer) pollWatcher() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-v.watcher.Changes:
			if !ok {
				v.watcher = nil
				return
			}
			v.log.Debug().Str("path", change.Path).Bool("script", change.Script).Msg("definition changed")
			if err := v.s.reload(); err != nil {
				v.log.Error().Err(err).Msg("reload")
				v.notify("reload failed, see log")
				continue
			}
			v.notify("reloaded")
		case err, ok := <-v.watcher.Errors:
			if !ok {
				v.watcher = nil
				return
			}
			v.log.Warn().Err(err).Msg("watcher")
		default:
			return
		}
	}
}

func (v *viewer) copyPose() {
	if !v.clipboard {
		v.notify("clipboard unavailable")
		return
	}
	data, err := v.s.poseYAML()
	if err != nil {
		v.notify(err.Error())
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	v.notify(fmt.Sprintf("copied %d bones", v.pose.Len()))
}

func (v *viewer) notify(msg string) {
	v.note = msg
	v.noteTicks = 2 * ebiten.TPS()
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)

	w, h := float32(v.cfg.Width), float32(v.cfg.Height)
	ground := h * 0.75
	vector.FillRect(screen, 0, ground, w, h-ground, color.RGBA{R: 0x20, G: 0x20, B: 0x38, A: 0xff}, false)
	vector.StrokeLine(screen, 0, ground, w, ground, 1, colornames.Slategray, false)

	if v.pose != nil {
		legs := 40 * v.cfg.Scale
		origin := cp.Vector{X: float64(w) / 2, Y: float64(ground) - legs}
		for _, seg := range layoutSkeleton(v.s.built.Spec.Skeleton, v.pose, origin, v.cfg.Scale) {
			vector.StrokeLine(screen, float32(seg.From.X), float32(seg.From.Y), float32(seg.To.X), float32(seg.To.Y), 4, boneColor(seg.Bone), true)
			vector.FillRect(screen, float32(seg.To.X)-2, float32(seg.To.Y)-2, 4, 4, colornames.White, false)
		}
	}

	ebitenutil.DebugPrint(screen, v.s.status())
	ebitenutil.DebugPrintAt(screen, helpText, 8, v.cfg.Height-20)
	if v.noteTicks > 0 {
		ebitenutil.DebugPrintAt(screen, v.note, 8, v.cfg.Height-36)
	}
}

func boneColor(name string) color.Color {
	switch name {
	case "head":
		return colornames.Gold
	case "arm_l", "leg_l":
		return colornames.Lightskyblue
	case "arm_r", "leg_r":
		return colornames.Salmon
	}
	return colornames.Orange
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.cfg.Width, v.cfg.Height
}
