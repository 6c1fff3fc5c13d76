package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/duskvale/patternmarket/internal/challenge"
	"github.com/duskvale/patternmarket/internal/exchange"
	"github.com/duskvale/patternmarket/internal/feed"
	"github.com/duskvale/patternmarket/internal/market"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printState(st market.State) {
	accent.Printf("tick %d  ", st.Tick)
	trend := neutral
	switch st.Trend {
	case market.TrendBull, market.TrendBullRun, market.TrendBubble:
		trend = success
	case market.TrendBear, market.TrendCrash:
		trend = danger
	}
	trend.Printf("%s x%.1f", st.Trend, st.Multiplier)
	neutral.Printf("  index %.1f  volatility %.2f\n\n", st.Index, st.VolatilityIndex)
}

func printInstruments(ins []market.Snapshot) {
	neutral.Printf("%-6s %-22s %-9s %10s %10s %10s %7s\n",
		"SYM", "NAME", "CATEGORY", "PRICE", "HIGH", "LOW", "BONUS")
	for _, in := range ins {
		line := neutral
		if in.Price >= in.OpenPrice {
			line = success
		} else {
			line = danger
		}
		line.Printf("%-6s %-22s %-9s %10.2f %10.2f %10.2f %6.2fx\n",
			in.Symbol, in.Name, in.Category, in.Price, in.High24, in.Low24, in.Bonus)
	}
}

func printInstrumentDetail(in market.Snapshot) {
	accent.Printf("%s  %s (%s)\n", in.Symbol, in.Name, in.Category)
	neutral.Printf("price %.2f  open %.2f  high %.2f  low %.2f  cap %.0f\n",
		in.Price, in.OpenPrice, in.High24, in.Low24, in.MarketCap)
	ind := in.Indicators
	neutral.Printf("sma7 %.2f  sma30 %.2f  rsi %.1f\n", ind.SMA7, ind.SMA30, ind.RSI)
	neutral.Printf("bollinger %.2f / %.2f / %.2f\n", ind.BollLower, ind.BollMiddle, ind.BollUpper)
	if in.Bonus > 1 {
		success.Printf("bonus %.2fx from %v\n", in.Bonus, in.SolvedBy)
	}
}

func printPortfolio(pv exchange.PortfolioView) {
	accent.Printf("%s\n", pv.ID)
	neutral.Printf("cash %s  realized %s  unrealized %.2f\n", pv.Cash, pv.Realized, pv.Unrealized)
	if len(pv.Holdings) > 0 {
		neutral.Println("holdings:")
		for sym, qty := range pv.Holdings {
			neutral.Printf("  %-6s %d\n", sym, qty)
		}
	}
	if len(pv.Shorts) > 0 {
		neutral.Println("shorts:")
		for sym, qty := range pv.Shorts {
			neutral.Printf("  %-6s %d\n", sym, qty)
		}
	}
	if len(pv.Solved) > 0 {
		neutral.Println("challenges solved:")
		for typ, n := range pv.Solved {
			neutral.Printf("  %-14s %d\n", typ, n)
		}
	}
}

func printOrder(o exchange.Order) {
	price := "market"
	if o.Price > 0 {
		price = fmt.Sprintf("%.2f", o.Price)
	}
	success.Printf("%s %s %d %s @ %s (%s)\n", o.Side, o.Symbol, o.Quantity, o.Owner, price, o.Status)
	neutral.Printf("id %s\n", o.ID)
}

func printOrders(orders []exchange.Order) {
	if len(orders) == 0 {
		neutral.Println("no orders")
		return
	}
	for _, o := range orders {
		line := neutral
		switch o.Status {
		case exchange.Filled:
			line = success
		case exchange.Cancelled:
			line = danger
		}
		line.Printf("%-9s %-5s %-6s qty %-6d price %8.2f  %s\n",
			o.Status, o.Side, o.Symbol, o.Quantity, o.Price, o.ID)
	}
}

func printChallenge(v challenge.View) {
	accent.Printf("%s (difficulty %d, reward %.2fx, %s to solve)\n",
		v.Type, v.Difficulty, v.Reward, v.TimeLimit)
	neutral.Println(v.Prompt)
}

func printBonus(b exchange.BonusApplied) {
	success.Printf("solved %s at difficulty %d: %.2fx bonus applied\n", b.Type, b.Difficulty, b.Reward)
	neutral.Printf("boosted: %v\nnext difficulty: %d\n", b.Instruments, b.NextDifficulty)
}

func printEvents(events []feed.Item) {
	if len(events) == 0 {
		neutral.Println("no events yet")
		return
	}
	for _, it := range events {
		line := neutral
		switch it.Kind {
		case feed.KindShock, feed.KindCancel:
			line = danger
		case feed.KindChallenge, feed.KindFill:
			line = success
		}
		line.Printf("[%s] #%d %-9s %s\n", it.At.Format(time.Kitchen), it.Tick, it.Kind, it.Message)
	}
}
