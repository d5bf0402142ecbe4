package analysis

import (
	"fmt"
	"strings"

	"equity-advisor/internal/llm"
	"equity-advisor/internal/types"
)

// promptArticles bounds how many evidence articles reach the reasoning service.
const promptArticles = 5

const snippetLimit = 200

func buildNewsPrompt(system string, ev types.EvidenceSet) types.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the sentiment of recent news for %s stock.\n\n", ev.Symbol)

	arts := ev.Top(promptArticles)
	texts := make([]string, 0, len(arts))
	if len(arts) == 0 {
		b.WriteString("There is no recent relevant news for this symbol. Treat sentiment as neutral unless you have strong reason otherwise.\n")
	} else {
		b.WriteString("Recent news:\n")
		for _, a := range arts {
			snippet := truncate(a.Snippet, snippetLimit)
			fmt.Fprintf(&b, "- [%s] %s: %s\n", a.Source, a.Title, snippet)
			texts = append(texts, a.Title+". "+snippet)
		}
	}
	b.WriteString("\nScore from -1 (very negative) to +1 (very positive). Focus on news that could move the price; weigh positive and negative aspects objectively.\n")
	b.WriteString(llm.Instruction)

	return types.Prompt{
		Kind:   types.SignalNews,
		Symbol: ev.Symbol,
		System: system,
		User:   b.String(),
		Facts:  map[string]float64{types.FactArticles: float64(len(arts))},
		Texts:  texts,
	}
}

func buildTechnicalPrompt(system, symbol string, s types.TechnicalSnapshot) types.Prompt {
	facts := map[string]float64{types.FactPrice: s.CurrentPrice}
	put(facts, types.FactRSI, s.RSI)
	put(facts, types.FactPriceVsMA20, s.PriceVsMA20Pct)
	put(facts, types.FactPriceVsMA50, s.PriceVsMA50Pct)
	put(facts, types.FactMomentum1W, s.Momentum1WPct)
	put(facts, types.FactMomentum1M, s.Momentum1MPct)
	put(facts, types.FactVolumeRatio, s.VolumeRatio)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the technical indicators for %s stock (%d daily bars):\n\n", symbol, s.Bars)
	fmt.Fprintf(&b, "- Current price: %.2f\n", s.CurrentPrice)
	fmt.Fprintf(&b, "- 20-day MA: %s\n", show(s.MA20, ""))
	fmt.Fprintf(&b, "- 50-day MA: %s\n", show(s.MA50, ""))
	fmt.Fprintf(&b, "- RSI(14): %s\n", show(s.RSI, ""))
	fmt.Fprintf(&b, "- Price vs 20-day MA: %s\n", show(s.PriceVsMA20Pct, "%"))
	fmt.Fprintf(&b, "- Price vs 50-day MA: %s\n", show(s.PriceVsMA50Pct, "%"))
	fmt.Fprintf(&b, "- Volume ratio (last / 20-day avg): %s\n", show(s.VolumeRatio, ""))
	fmt.Fprintf(&b, "- 1-week momentum: %s\n", show(s.Momentum1WPct, "%"))
	fmt.Fprintf(&b, "- 1-month momentum: %s\n", show(s.Momentum1MPct, "%"))
	fmt.Fprintf(&b, "- Bollinger(20,2): %s / %s\n", show(s.BollingerLower, ""), show(s.BollingerUpper, ""))
	fmt.Fprintf(&b, "- ATR(14): %s\n", show(s.ATR, ""))
	b.WriteString("\nScore from -1 (very bearish) to +1 (very bullish). Consider RSI levels (overbought >70, oversold <30), price relative to moving averages, momentum and volume.\n")
	b.WriteString(llm.Instruction)

	return types.Prompt{
		Kind:   types.SignalTechnical,
		Symbol: symbol,
		System: system,
		User:   b.String(),
		Facts:  facts,
	}
}

func buildFundamentalPrompt(system, symbol string, f types.Fundamentals) types.Prompt {
	facts := map[string]float64{}
	put(facts, types.FactPrice, f.Price)
	put(facts, types.FactTrailingPE, f.TrailingPE)
	put(facts, types.FactForwardPE, f.ForwardPE)
	put(facts, types.FactPEG, f.PEG)
	put(facts, types.FactPriceToBook, f.PriceToBook)
	put(facts, types.FactDebtToEquity, f.DebtToEquity)
	put(facts, types.FactROE, f.ROE)
	put(facts, types.FactRevenueGrowth, f.RevenueGrowth)
	put(facts, types.FactEarningsGrowth, f.EarningsGrowth)
	put(facts, types.FactDividendYield, f.DividendYield)
	if f.Price != nil && f.TargetPrice != nil && *f.Price > 0 {
		facts[types.FactTargetUpside] = (*f.TargetPrice - *f.Price) / *f.Price * 100
	}

	name := f.CompanyName
	if name == "" {
		name = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the fundamental metrics for %s (%s):\n\n", symbol, name)
	fmt.Fprintf(&b, "- Sector: %s / %s\n", orNA(f.Sector), orNA(f.Industry))
	fmt.Fprintf(&b, "- Market cap: %s\n", show(f.MarketCap, ""))
	fmt.Fprintf(&b, "- P/E (trailing / forward): %s / %s\n", show(f.TrailingPE, ""), show(f.ForwardPE, ""))
	fmt.Fprintf(&b, "- PEG: %s\n", show(f.PEG, ""))
	fmt.Fprintf(&b, "- Price to book: %s\n", show(f.PriceToBook, ""))
	fmt.Fprintf(&b, "- Debt to equity: %s\n", show(f.DebtToEquity, ""))
	fmt.Fprintf(&b, "- ROE: %s\n", show(f.ROE, ""))
	fmt.Fprintf(&b, "- Revenue growth: %s\n", show(f.RevenueGrowth, ""))
	fmt.Fprintf(&b, "- Earnings growth: %s\n", show(f.EarningsGrowth, ""))
	fmt.Fprintf(&b, "- Dividend yield: %s\n", show(f.DividendYield, ""))
	fmt.Fprintf(&b, "- Beta: %s\n", show(f.Beta, ""))
	fmt.Fprintf(&b, "- Price / analyst target: %s / %s\n", show(f.Price, ""), show(f.TargetPrice, ""))
	b.WriteString("\nScore from -1 (poor fundamentals) to +1 (strong fundamentals). Consider valuation, financial health, growth prospects and dividend sustainability.\n")
	b.WriteString(llm.Instruction)

	return types.Prompt{
		Kind:   types.SignalFundamental,
		Symbol: symbol,
		System: system,
		User:   b.String(),
		Facts:  facts,
	}
}

func put(m map[string]float64, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func show(v *float64, unit string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%s", *v, unit)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
