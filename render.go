package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/keeperai/computer"
	"github.com/milk9111/keeperai/sandbox"
	"golang.org/x/image/colornames"
)

const (
	cellSize = 7
	mapX     = 16
	mapY     = 24
	panelX   = mapX + sandbox.MapWidth*cellSize + 24
)

var playerColors = []color.RGBA{
	colornames.Gold,
	colornames.Deepskyblue,
	colornames.Limegreen,
	colornames.Orchid,
}

var roomColors = map[computer.RoomKind]color.RGBA{
	computer.RoomEntrance: colornames.Sienna,
	computer.RoomTreasury: colornames.Goldenrod,
	computer.RoomLair:     colornames.Slategray,
	computer.RoomHatchery: colornames.Indianred,
	computer.RoomTraining: colornames.Steelblue,
	computer.RoomLibrary:  colornames.Mediumpurple,
	computer.RoomWorkshop: colornames.Peru,
	computer.RoomBarracks: colornames.Darkolivegreen,
	computer.RoomTemple:   colornames.Lightsteelblue,
	computer.RoomPrison:   colornames.Dimgray,
}

func cell(x, y int) (float32, float32) {
	return float32(mapX + x*cellSize), float32(mapY + y*cellSize)
}

func withAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

func (g *Game) drawWorld(screen *ebiten.Image) {
	w := g.match.World
	vector.FillRect(screen, mapX, mapY, sandbox.MapWidth*cellSize, sandbox.MapHeight*cellSize, colornames.Black, false)

	for id := range w.PlayerCount() {
		d, ok := w.DungeonOf(computer.PlayerID(id))
		if !ok {
			continue
		}
		pc := playerColors[id%len(playerColors)]

		d.EachRoom(func(r computer.Room) bool {
			side := int(math.Ceil(math.Sqrt(float64(r.Slabs))))
			x, y := cell(r.X, r.Y)
			size := float32(side * cellSize)
			rc, ok := roomColors[r.Kind]
			if !ok {
				rc = colornames.Gray
			}
			vector.FillRect(screen, x, y, size, size, withAlpha(rc, 160), false)
			vector.StrokeRect(screen, x, y, size, size, 1, pc, false)
			return true
		})

		hx, hy, health := d.Heart()
		if health > 0 {
			x, y := cell(hx-1, hy-1)
			vector.FillRect(screen, x, y, 3*cellSize, 3*cellSize, withAlpha(colornames.Crimson, uint8(80+health*175/100)), false)
		}

		d.EachCreature(func(cr computer.Creature) bool {
			x, y := cell(cr.X, cr.Y)
			r := float32(cellSize) * 0.45
			c := pc
			if cr.Digger {
				r = float32(cellSize) * 0.3
			}
			if cr.Fighting {
				c = colornames.Red
			}
			vector.FillCircle(screen, x+cellSize/2, y+cellSize/2, r, c, true)
			return true
		})
	}
}

func (g *Game) drawPanel(screen *ebiten.Image) {
	w := g.match.World
	speed := fmt.Sprintf("x%d", g.turnsPerFrame)
	if g.paused {
		speed = "paused"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("turn %d  %s  FPS %.0f", w.Turn(), speed, ebiten.ActualFPS()), mapX, 4)

	y := mapY
	for id := range w.PlayerCount() {
		pid := computer.PlayerID(id)
		d, _ := w.DungeonOf(pid)
		info, _ := w.Player(pid)
		_, _, health := d.Heart()

		header := fmt.Sprintf("P%d human", id)
		if c, ok := g.match.Manager.Computer(pid); ok {
			name := "?"
			if arch, err := g.match.Catalog.Archetype(c.Model); err == nil {
				name = arch.Name
			}
			running := "-"
			if p := c.RunningProcess(); p != nil {
				running = p.Mnemonic
			}
			header = fmt.Sprintf("P%d %s [%s] %s", id, name, c.State, running)
		}
		if !info.Active {
			header += " (defeated)"
		}
		ebitenutil.DebugPrintAt(screen, header, panelX, y)
		y += 14
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("  gold %d  seams %d  heart %d  free %d", d.Gold(), d.KnownGold(), health, d.FreeSlabs()), panelX, y)
		y += 14
		for i, t := range w.TaskList().Pending(pid) {
			if i == 3 {
				ebitenutil.DebugPrintAt(screen, "  ...", panelX, y)
				y += 14
				break
			}
			ebitenutil.DebugPrintAt(screen, fmt.Sprintf("  task %d %s left %d crew %d", t.ID, t.Request.Kind, t.Remaining, t.Crew), panelX, y)
			y += 14
		}
		y += 6
	}

	y += 8
	ebitenutil.DebugPrintAt(screen, "recent callbacks:", panelX, y)
	y += 14
	for _, e := range g.recent {
		ebitenutil.DebugPrintAt(screen, e.String(), panelX, y)
		y += 14
	}
	if g.status != "" {
		ebitenutil.DebugPrintAt(screen, g.status, mapX, baseHeight-20)
	}
}
