package token

// Token defines how many units of the draw currency a number of draws costs.
type Token struct {
	Name       string // e.g. "Stellar Jade", "Star Stone"
	PerDraw    int    // tokens per single draw, e.g. 160, 250
	PerTenDraw int    // optional; if 0 -> equal to 10 * PerDraw, a special case of PerNDraw
	PerNDraw   int    // optional; if 0 -> equal to N * PerDraw
	N          int    // optional; bundle size for PerNDraw, ignored if <= 1
}

// TokensForDraws returns how many tokens are required for n draws.
// Bundles are applied greedily; the remainder is charged per draw.
func (t Token) TokensForDraws(n int) int {
	if n <= 0 {
		return 0
	}
	if t.PerNDraw > 0 && t.N > 1 && n >= t.N {
		ns := n / t.N
		rem := n % t.N
		return ns*t.PerNDraw + rem*t.PerDraw
	}
	if t.PerTenDraw > 0 && n >= 10 {
		tens := n / 10
		remTens := n % 10
		return tens*t.PerTenDraw + remTens*t.PerDraw
	}
	return n * t.PerDraw
}

// Cost is TokensForDraws as a balance amount.
func (t Token) Cost(n int) int64 {
	return int64(t.TokensForDraws(n))
}
