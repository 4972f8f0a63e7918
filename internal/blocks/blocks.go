// Package blocks divides the current clock hour into seven equal
// sub-blocks and aggregates 1-minute bars per block.
package blocks

import (
	"time"

	"LevelSentinel/internal/market"
	"LevelSentinel/internal/model"
)

// PerHour is the fixed block count; each block spans 60/7 minutes.
const PerHour = 7

// OHLC is the aggregate of the 1-minute bars inside one block.
type OHLC struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	BarCount int     `json:"bar_count"`
}

// Block is one subdivision of the hour. OHLC is nil when no bars fell
// inside the block.
type Block struct {
	Num      int       `json:"num"` // 1..7
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Complete bool      `json:"complete"`
	OHLC     *OHLC     `json:"ohlc"`
}

// Summary is the full segmentation of the current hour.
type Summary struct {
	HourStart       time.Time `json:"hour_start"`
	HourEnd         time.Time `json:"hour_end"`
	Blocks          []Block   `json:"blocks"`
	CurrentBlock    int       `json:"current_block"`
	BlocksCompleted int       `json:"blocks_completed"`
	Progress        float64   `json:"progress"`          // completed / 7
	TimeInBlockPct  float64   `json:"time_in_block_pct"` // elapsed fraction of the current block, 0..100
}

// Boundaries computes the seven block windows for the hour containing
// now. A block is complete iff now has reached its end.
func Boundaries(now time.Time) []Block {
	lnow := market.ToLocal(now)
	hourStart := market.CandleOpen(lnow, time.Hour)

	blocks := make([]Block, PerHour)
	for i := 0; i < PerHour; i++ {
		start := hourStart.Add(time.Duration(i) * time.Hour / PerHour)
		end := hourStart.Add(time.Duration(i+1) * time.Hour / PerHour)
		blocks[i] = Block{
			Num:      i + 1,
			Start:    start,
			End:      end,
			Complete: !lnow.Before(end),
		}
	}
	return blocks
}

// Segment aggregates 1-minute bars per block and locates the current
// block: the first incomplete one, or the 7th at the top of the hour.
func Segment(bars []model.Bar, now time.Time) Summary {
	lnow := market.ToLocal(now)
	blocks := Boundaries(lnow)

	sum := Summary{
		HourStart: blocks[0].Start,
		HourEnd:   blocks[PerHour-1].End,
	}

	for i := range blocks {
		blocks[i].OHLC = aggregate(bars, blocks[i].Start, blocks[i].End)
		if blocks[i].Complete {
			sum.BlocksCompleted++
		} else if sum.CurrentBlock == 0 {
			sum.CurrentBlock = blocks[i].Num
		}
	}
	if sum.CurrentBlock == 0 {
		sum.CurrentBlock = PerHour
	}

	sum.Blocks = blocks
	sum.Progress = float64(sum.BlocksCompleted) / PerHour

	cur := blocks[sum.CurrentBlock-1]
	if d := cur.End.Sub(cur.Start); d > 0 {
		into := lnow.Sub(cur.Start)
		if into < 0 {
			into = 0
		}
		if into > d {
			into = d
		}
		sum.TimeInBlockPct = float64(into) / float64(d) * 100
	}
	return sum
}

func aggregate(bars []model.Bar, start, end time.Time) *OHLC {
	var agg *OHLC
	for _, b := range bars {
		lt := market.ToLocal(b.Time)
		if lt.Before(start) || !lt.Before(end) {
			continue
		}
		if agg == nil {
			agg = &OHLC{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
		}
		if b.High > agg.High {
			agg.High = b.High
		}
		if b.Low < agg.Low {
			agg.Low = b.Low
		}
		agg.Close = b.Close
		agg.Volume += b.Volume
		agg.BarCount++
	}
	return agg
}
