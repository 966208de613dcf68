package nlp

// The marker lexicons below drive structure, disfluency, and effectiveness
// scoring. They are fixed vocabularies, not tunables; runtime-configurable
// word lists (fillers, domain vocabulary) start from these defaults and may
// be overridden through configuration.

// DefaultFillerWords is the default filler lexicon. Multi-word entries are
// matched against the token stream.
var DefaultFillerWords = []string{
	"um", "uh", "ah", "ugh", "er", "hmm", "huh",
	"like", "you know", "sort of", "kind of",
	"so", "actually", "basically", "literally",
	"yeah", "right", "okay", "well",
}

// IntroKeywords signal an introduction section.
var IntroKeywords = []string{
	"introduction", "introduce", "begin", "today", "topic", "discuss",
	"talk about", "welcome", "good morning", "good afternoon", "hello",
	"thank you for", "i am here to", "i will be", "starting with",
	"first of all", "to start with", "i would like to",
}

// ConclusionKeywords signal a conclusion section.
var ConclusionKeywords = []string{
	"conclusion", "conclude", "summarize", "summary", "in closing",
	"to sum up", "finally", "lastly", "in summary", "to conclude",
	"wrapping up", "in the end", "as we have seen", "in conclusion",
	"to summarize", "overall", "therefore", "thus", "in short",
}

// TransitionWords are single-word transitions counted inside the body.
var TransitionWords = []string{
	"first", "second", "third", "next", "then", "furthermore",
	"additionally", "moreover", "another", "subsequently",
	"besides", "also", "finally", "now", "however", "nevertheless",
}

// SectionTransitions are multi-word phrases that bridge major sections.
var SectionTransitions = []string{
	"moving on to", "now let's discuss", "turning our attention to",
	"next i'd like to address", "having discussed", "after examining",
	"with that in mind", "considering this", "given these points",
	"now that we understand", "building on this idea", "this leads us to",
}

// BodyStartKeywords signal the start of the body section.
var BodyStartKeywords = []string{
	"first", "firstly", "to begin with", "to start with", "first of all",
	"my first point", "the first aspect", "to start", "starting with",
	"let me start", "beginning with", "let us examine", "let's look at",
}

// PurposeIndicators signal a stated purpose near the opening.
var PurposeIndicators = []string{
	"purpose", "goal", "aim", "objective", "today", "discuss",
	"explain", "demonstrate", "show", "present", "introduce",
}

// DiscourseMarkers grouped by function; effectiveness scoring counts them
// across all groups.
var DiscourseMarkers = []string{
	"first", "to begin", "introduction", "topic", "discuss",
	"however", "moreover", "furthermore", "additionally", "therefore", "consequently",
	"finally", "in conclusion", "to summarize", "thus", "in summary",
}

// EmphasisIndicators mark phrases a speaker typically stresses.
var EmphasisIndicators = []string{
	"important", "critical", "essential", "crucial", "significant",
	"key", "primary", "fundamental", "vital", "central",
	"remember", "note that", "consider", "focus on", "emphasize",
}

// NarrativeMarkers signal storytelling or figurative content; used for the
// creative-content bonus in effectiveness scoring.
var NarrativeMarkers = []string{
	"once", "when i was", "story", "imagine", "like a", "as if",
	"remember when", "years ago", "one day",
}

// EmotionWords back the creative-content bonus alongside NarrativeMarkers.
var EmotionWords = []string{
	"love", "fear", "joy", "hope", "dream", "afraid", "excited",
	"proud", "grateful", "heart",
}

// DefaultStopwords is the built-in English stopword set, used when the
// reference data directory does not supply one.
var DefaultStopwords = map[string]bool{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "when",
		"at", "by", "for", "with", "about", "against", "between", "into",
		"through", "during", "before", "after", "above", "below", "to",
		"from", "up", "down", "in", "out", "on", "off", "over", "under",
		"again", "further", "once", "here", "there", "all", "any", "both",
		"each", "few", "more", "most", "other", "some", "such", "no", "nor",
		"not", "only", "own", "same", "so", "than", "too", "very", "can",
		"will", "just", "should", "now", "i", "me", "my", "myself", "we",
		"our", "ours", "you", "your", "yours", "he", "him", "his", "she",
		"her", "hers", "it", "its", "they", "them", "their", "what", "which",
		"who", "whom", "this", "that", "these", "those", "am", "is", "are",
		"was", "were", "be", "been", "being", "have", "has", "had", "having",
		"do", "does", "did", "doing", "would", "could", "of", "as", "until",
		"while", "because", "how", "why", "where", "s", "t", "don", "dont",
	} {
		DefaultStopwords[w] = true
	}
}

// BasicWords are common words excluded from advanced-vocabulary counting.
var BasicWords = map[string]bool{}

func init() {
	for _, w := range []string{
		"good", "bad", "big", "small", "happy", "sad", "go", "come", "make",
		"take", "see", "look", "find", "get", "give", "think", "say", "tell",
		"work", "call", "try", "ask", "need", "feel", "leave", "put", "like",
		"time", "know", "people", "year", "way", "day", "man", "thing",
		"woman", "life", "child", "world", "school", "state", "family",
		"student", "group", "country", "problem", "hand", "part", "place",
		"case", "week", "company", "system", "program", "question",
		"government", "number", "night", "point", "home", "water", "room",
		"mother", "area", "money", "story", "fact", "month", "lot", "right",
		"study", "nice", "stuff", "very", "really", "said", "went", "got",
		"took", "made", "did",
	} {
		BasicWords[w] = true
	}
}

// SubordinatingConjunctions approximate the syntactic-complexity cue the
// content analyzer needs without a POS tagger.
var SubordinatingConjunctions = []string{
	"because", "although", "though", "since", "unless", "while", "whereas",
	"whenever", "wherever", "whether", "if", "until", "after", "before",
	"once", "that", "which", "who", "whose",
}
