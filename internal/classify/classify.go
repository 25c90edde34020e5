// Package classify assigns negative app-store reviews to complaint
// categories using a priority-ordered cascade of multilingual pattern
// groups. Classification is a pure function of the review text: stateless,
// deterministic, and free of external calls, so it is safe for concurrent
// use and trivial to test.
//
// Each group carries per-language alternations (English, Spanish, Filipino,
// and Chinese for the technical group); the text matches a group when any
// language pattern matches. Evaluation is strictly top-down and the first
// matching group wins, so an earlier group pre-empts later ones even when
// later patterns would also match. Notably, the technical-dysfunction group
// out-ranks the financial complaint groups so that "broken app" reviews are
// not misfiled as interest or limit complaints.
package classify

import (
	"math"
	"regexp"
	"unicode/utf8"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// Confidence assigned by the cascade and its escalation terms.
const (
	confForceEnglish   = 0.98 // explicit English coercion phrasing
	confForceOther     = 0.96
	confViolBase       = 0.90
	confViolEscalated  = 0.98 // threat marker and third-party-contact marker together
	confTechnical      = 0.85
	confInterestBase   = 0.85
	confInterestTerm   = 0.92 // explicit interest/fee term present
	confRejectedBase   = 0.85
	confRejectedScam   = 0.90 // explicit scam/fraud term present
	confAmountBase     = 0.80
	confAmountTerm     = 0.88 // explicit limit/amount term present
	confUnmatchedLong  = 0.5  // no group matched, text longer than 50 runes
	confUnmatchedShort = 0.4
	confNoise          = 0.3 // too short or no alphabetic content
)

const (
	minMeaningfulRunes = 5
	longTextRunes      = 50
)

// Pattern groups, one regexp per supported language. The alternations were
// tuned against loan-app review corpora for Nigeria, Mexico, and the
// Philippines.
var (
	forceEng = regexp.MustCompile(`(?i)(without consent|didn't apply|did not apply|don't apply|do not apply|never apply|force|automatic|automatically|unauthorized|didn't ask|did not ask|without my permission|forced loan|gave me loan without|disbursed without)`)
	forceSpa = regexp.MustCompile(`(?i)(sin permiso|sin consentimiento|automátic|no ped|no solicit|forzado|sin mi autorización|deposito sin|me depositaron sin|prestamo forzado)`)
	forcePhi = regexp.MustCompile(`(?i)(kusa|sapilitan|hindi ako nag-apply|nag-disburse nang hindi|automatik)`)

	violEng = regexp.MustCompile(`(?i)(rude|abuse|insult|vulgar|shout|stupid|idiot|fool|curse|barking|animal|dog|mad|harass|disturb|calling|threat|threaten|family|mother|father|parent|boss|contact|relative|shame|photo|picture|post|defame|embarrass|early|before|repay to|pay into|personal account|whatsapp|bank transfer to|illegal collection|harassing|calling my friends)`)
	violSpa = regexp.MustCompile(`(?i)(groser|insult|acos|amenaz|difam|avergonz|parient|famili|contact|foto|imagen|cobrar antes|depósito|cuenta personal|otra cuenta|whatsapp|amenazan|marcan a mis|llaman a mis|cobranza)`)
	violPhi = regexp.MustCompile(`(?i)(bastos|mura|pananakot|pamilya|kontak|pagbabanta|tinatakot|binabastos|tinatawagan ang mga)`)

	techEng = regexp.MustCompile(`(?i)(useless|waste of time|can't login|cannot login|unable to login|not working|crash|bug|error|worst app|garbage|trash|loading|open|not opening|doesn't open|won't open|useless app|pay for|payment|holiday|vacation|travel|medical|school|fees|rent|buy|purchase|shopping|gift|used for|purpose|need money for)`)
	techSpa = regexp.MustCompile(`(?i)(no funciona|basura|no sirve|peor aplicacion|tiempo perdido|no abre|error|falla|pagar|vacaciones|viaje|médico|colegio|alquiler|comprar|compras|regalo|uso para|propósito|necesito dinero para)`)
	techPhi = regexp.MustCompile(`(?i)(sayang oras|hindi gumagana|pangit|basura|pambayad|bakasyon|biyahe|ospital|matrikula|upa|pambili|gamit sa|layunin|kailangan ng pera para)`)
	techChi = regexp.MustCompile(`(没用|没用的app|没用的程序|无法登录|登录失败|异常|闪退|打不开|垃圾|支付|还款|消费|节假日|过年|买东西|交学费|生活费|贷款用途|用处|买车|买房|旅游)`)

	intEng = regexp.MustCompile(`(?i)(less than|deduct|service fee|hidden fee|charge|expensive|interest|percentage|high rate|cut|excessive|received less|got less|too much fee|high interest|rip off| robbery|7 days only)`)
	intSpa = regexp.MustCompile(`(?i)(interés|tasa|comisión|cargo|deduc|descuento|recibí menos|caro|excesiv|cobro|robo|mucho interes|solo 7 dias|gastos de gestion)`)
	intPhi = regexp.MustCompile(`(?i)(mataas na interes|bawas|singil|sobrang mahal|7 araw lang)`)

	rejEng = regexp.MustCompile(`(?i)(reject|decline|fail|unsuccessful|not approve|didn't pass|denied|refused|pending|review|stuck|processing|waiting|scam|fraud|fake|stealing|info|data|phishing)`)
	rejSpa = regexp.MustCompile(`(?i)(rechaz|deneg|pendient|proces|espera|fraud|estaf|robo|información personal|engaño)`)
	rejPhi = regexp.MustCompile(`(?i)(rejected|scam|hindi naapprove|naghihintay|manloloko|pekeng)`)

	amtEng = regexp.MustCompile(`(?i)(low|small|tiny|poor|little|meager|amount|limit|quota|increase|higher|upgrade|raise|disappointed|unhappy|sad|not enough|very small)`)
	amtSpa = regexp.MustCompile(`(?i)(bajo|poco|pequeñ|limit|cantid|monto|aument|decepcion|insuficiente|muy poquito)`)
	amtPhi = regexp.MustCompile(`(?i)(mababa|maliit|dagdag|kulang|napaka liit)`)
)

// Escalation markers, shared across languages.
var (
	threatRE   = regexp.MustCompile(`(?i)(threat|amenaz|threaten|harass|acos)`)
	contactRE  = regexp.MustCompile(`(?i)(contact|family|parent|relative|famili|pamilya|kontak)`)
	feeTermRE  = regexp.MustCompile(`(?i)(interest|tasa|interés|fee|comisión)`)
	scamTermRE = regexp.MustCompile(`(?i)(scam|fraud|estaf|fake)`)
	amtTermRE  = regexp.MustCompile(`(?i)(limit|monto|amount|increase|aument)`)
)

// Alphabetic-content probes: Latin (with the accented letters the supported
// locales use) and the CJK unified range.
var (
	latinRE = regexp.MustCompile(`[a-zA-Záéíóúüñ]`)
	cjkRE   = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)
)

// rule is one step of the cascade: a category, its per-language patterns,
// and the confidence for a match on this step.
type rule struct {
	category   domain.Category
	patterns   []*regexp.Regexp
	confidence func(text string, langIdx int) float64
}

// cascade is the ordered rule list. Order is load-bearing: earlier entries
// pre-empt later ones.
var cascade = []rule{
	{
		category: domain.CategoryForce,
		patterns: []*regexp.Regexp{forceEng, forceSpa, forcePhi},
		confidence: func(_ string, langIdx int) float64 {
			if langIdx == 0 {
				return confForceEnglish
			}
			return confForceOther
		},
	},
	{
		category: domain.CategoryViolence,
		patterns: []*regexp.Regexp{violEng, violSpa, violPhi},
		confidence: func(text string, _ int) float64 {
			if threatRE.MatchString(text) && contactRE.MatchString(text) {
				return confViolEscalated
			}
			return confViolBase
		},
	},
	{
		// Technical dysfunction and loan-purpose narration file under
		// "other" ahead of the financial groups.
		category:   domain.CategoryOther,
		patterns:   []*regexp.Regexp{techEng, techSpa, techPhi, techChi},
		confidence: func(string, int) float64 { return confTechnical },
	},
	{
		category: domain.CategoryInterest,
		patterns: []*regexp.Regexp{intEng, intSpa, intPhi},
		confidence: func(text string, _ int) float64 {
			if feeTermRE.MatchString(text) {
				return confInterestTerm
			}
			return confInterestBase
		},
	},
	{
		category: domain.CategoryRejected,
		patterns: []*regexp.Regexp{rejEng, rejSpa, rejPhi},
		confidence: func(text string, _ int) float64 {
			if scamTermRE.MatchString(text) {
				return confRejectedScam
			}
			return confRejectedBase
		},
	},
	{
		category: domain.CategoryAmount,
		patterns: []*regexp.Regexp{amtEng, amtSpa, amtPhi},
		confidence: func(text string, _ int) float64 {
			if amtTermRE.MatchString(text) {
				return confAmountTerm
			}
			return confAmountBase
		},
	},
}

// Classify assigns a review to a category with a confidence score.
func Classify(r domain.Review) domain.Classification {
	category, confidence := classifyText(r.Text)
	return domain.Classification{
		ID:         r.ID,
		Category:   category,
		Confidence: round2(confidence),
	}
}

// ClassifyAll classifies each review in order; the result list is parallel
// to the input.
func ClassifyAll(reviews []domain.Review) []domain.Classification {
	out := make([]domain.Classification, len(reviews))
	for i, r := range reviews {
		out[i] = Classify(r)
	}
	return out
}

func classifyText(text string) (domain.Category, float64) {
	// The noise override beats everything: texts that are too short or
	// carry no alphabetic content (emoji-only, symbols) are low-confidence
	// "other" no matter what else would match.
	if utf8.RuneCountInString(text) < minMeaningfulRunes || !hasAlphabetic(text) {
		return domain.CategoryOther, confNoise
	}

	for _, step := range cascade {
		for langIdx, p := range step.patterns {
			if p.MatchString(text) {
				return step.category, step.confidence(text, langIdx)
			}
		}
	}

	// Nothing matched: longer text is weighted as more likely meaningful
	// but still unclassified.
	if utf8.RuneCountInString(text) > longTextRunes {
		return domain.CategoryOther, confUnmatchedLong
	}
	return domain.CategoryOther, confUnmatchedShort
}

func hasAlphabetic(text string) bool {
	return latinRE.MatchString(text) || cjkRE.MatchString(text)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
