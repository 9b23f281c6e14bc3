package view

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/signalsfoundry/colortrace/model"
)

// polygon is one closed ring of a region outline.
type polygon []model.Point

// parsePath reads the subset of SVG path data used by map files: move,
// line, horizontal, vertical and close commands, absolute or relative.
// Each subpath becomes one polygon; curves are not supported.
func parsePath(d string) ([]polygon, error) {
	toks, err := tokenize(d)
	if err != nil {
		return nil, err
	}

	var (
		out      []polygon
		cur      polygon
		pos      model.Point
		start    model.Point
		cmd      byte
		i        int
		haveMove bool
	)
	flush := func() {
		if len(cur) >= 3 {
			out = append(out, cur)
		}
		cur = nil
	}
	num := func() (float64, error) {
		if i >= len(toks) || toks[i].isCmd {
			return 0, fmt.Errorf("path %q: expected number after %c", d, cmd)
		}
		v := toks[i].num
		i++
		return v, nil
	}

	for i < len(toks) {
		if toks[i].isCmd {
			cmd = toks[i].cmd
			i++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path %q: number before first command", d)
		}

		rel := cmd >= 'a' && cmd <= 'z'
		switch unicode.ToUpper(rune(cmd)) {
		case 'M', 'L':
			x, err := num()
			if err != nil {
				return nil, err
			}
			y, err := num()
			if err != nil {
				return nil, err
			}
			if rel && haveMove {
				x, y = pos.X+x, pos.Y+y
			}
			pos = model.Point{X: x, Y: y}
			if unicode.ToUpper(rune(cmd)) == 'M' {
				flush()
				start = pos
				haveMove = true
				// Extra pairs after a move are implicit line-tos.
				if rel {
					cmd = 'l'
				} else {
					cmd = 'L'
				}
			}
			cur = append(cur, pos)
		case 'H':
			x, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				x += pos.X
			}
			pos.X = x
			cur = append(cur, pos)
		case 'V':
			y, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				y += pos.Y
			}
			pos.Y = y
			cur = append(cur, pos)
		case 'Z':
			flush()
			pos = start
			cmd = 0
		default:
			return nil, fmt.Errorf("path %q: unsupported command %c", d, cmd)
		}
		if !haveMove {
			return nil, fmt.Errorf("path %q: must start with a move", d)
		}
	}
	flush()
	return out, nil
}

type token struct {
	isCmd bool
	cmd   byte
	num   float64
}

func tokenize(d string) ([]token, error) {
	var toks []token
	for i := 0; i < len(d); {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvZz", c) >= 0:
			toks = append(toks, token{isCmd: true, cmd: c})
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(d) && (d[j] == '.' || d[j] == 'e' || d[j] == 'E' || (d[j] >= '0' && d[j] <= '9') ||
				((d[j] == '-' || d[j] == '+') && (d[j-1] == 'e' || d[j-1] == 'E'))) {
				j++
			}
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("path %q: bad number %q", d, d[i:j])
			}
			toks = append(toks, token{num: v})
			i = j
		default:
			return nil, fmt.Errorf("path %q: unexpected %q", d, c)
		}
	}
	return toks, nil
}

// contains reports whether p lies inside the polygon (even-odd rule).
func (poly polygon) contains(p model.Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

func (poly polygon) centroid() model.Point {
	var c model.Point
	for _, p := range poly {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(poly))
	return model.Point{X: c.X / n, Y: c.Y / n}
}
