package models

// Seed catalogs used on first startup when storage is empty. Operators can
// edit or delete any of these afterwards; they are inserted once.

// SeedEntry is a name/url pair for a default source
type SeedEntry struct {
	Name string
	URL  string
}

// DefaultFeedSources are the AI news feeds registered on first run
var DefaultFeedSources = []SeedEntry{
	{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
	{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
	{Name: "MIT Technology Review AI", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed"},
	{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
	{Name: "Wired AI", URL: "https://www.wired.com/feed/tag/ai/latest/rss"},
	{Name: "Ars Technica AI", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
	{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/"},
	{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss/"},
	{Name: "Anthropic News", URL: "https://www.anthropic.com/news/rss"},
	{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml"},
}

// DefaultChannelSources are the video channels registered on first run.
// The URL is the channel's public feed endpoint.
var DefaultChannelSources = []SeedEntry{
	{Name: "Two Minute Papers", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCbfYPyITQ-7l4upoX8nvctg"},
	{Name: "Yannic Kilcher", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCZHmQk67mSJgfCCTn7xBfew"},
	{Name: "AI Explained", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCNJ1Ymd5yFuUPtn21xtRbbw"},
	{Name: "Fireship", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCsBjURrPoezykLs9EqgamOA"},
	{Name: "Lex Fridman", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCSHZKyawb77ixDdsGog4iWA"},
	{Name: "sentdex", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCfzlCWGWYyIQ0aLC5w48gBQ"},
	{Name: "3Blue1Brown", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCYO_jab_esuFRV4b17AJtAw"},
	{Name: "Andrej Karpathy", URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCXUPKJO5MZQN11PqgIvyuvQ"},
}

// DefaultBidKeywords filter procurement-board rows down to relevant notices
var DefaultBidKeywords = []string{
	"인공지능",
	"AI",
	"머신러닝",
	"딥러닝",
	"빅데이터",
	"데이터분석",
	"클라우드",
	"챗봇",
	"자연어처리",
	"영상분석",
	"음성인식",
	"자율주행",
	"로봇",
	"RPA",
	"자동화",
}

// DefaultKeywordTaxonomy maps group name to canonical keyword to synonyms
var DefaultKeywordTaxonomy = map[string]map[string][]string{
	"AI Core": {
		"AI":     {"인공지능", "Artificial Intelligence", "A.I."},
		"LLM":    {"Large Language Model", "대규모 언어 모델", "거대 언어 모델"},
		"GPT":    {"GPT-4", "GPT-5", "ChatGPT"},
		"Claude": {"Anthropic Claude", "Claude AI"},
		"Gemini": {"Google Gemini", "Gemini Pro", "Gemini Ultra"},
	},
	"Physical AI": {
		"Physical AI": {"Embodied AI", "실체화된 AI"},
		"Humanoid":    {"휴머노이드", "인간형 로봇", "Humanoid Robot"},
		"Auto Pilot":  {"자율주행", "Autonomous Driving", "FSD", "Full Self-Driving"},
		"Robotics":    {"로봇공학", "로보틱스"},
	},
	"AI Business": {
		"AI Agent":      {"AI 에이전트", "Autonomous Agent", "자율 에이전트"},
		"Vertical AI":   {"버티컬 AI", "Industry AI", "산업 특화 AI"},
		"AI Automation": {"AI 자동화", "Intelligent Automation", "지능형 자동화"},
	},
	"Big Tech": {
		"OpenAI":    {"오픈AI", "Open AI"},
		"Google":    {"구글", "Google AI", "DeepMind"},
		"Meta":      {"메타", "Meta AI", "Facebook AI"},
		"NVIDIA":    {"엔비디아", "NVIDIA AI"},
		"Tesla":     {"테슬라", "Tesla AI", "Tesla Bot"},
		"Microsoft": {"마이크로소프트", "MS", "Microsoft AI"},
		"Amazon":    {"아마존", "Amazon AI", "AWS AI"},
		"Apple":     {"애플", "Apple AI", "Apple Intelligence"},
	},
}
