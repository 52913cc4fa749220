package responder

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Input is what every rule sees. Lower is the lower-cased Text.
type Input struct {
	Text    string
	Lower   string
	Model   string
	Now     time.Time
	Chinese bool
}

func newInput(text, model string, now time.Time) Input {
	return Input{
		Text:    text,
		Lower:   strings.ToLower(text),
		Model:   model,
		Now:     now,
		Chinese: containsHan(text),
	}
}

// Rule is one stage of the intent cascade. Match and Respond must be pure.
type Rule struct {
	Name    string
	Match   func(in Input) bool
	Respond func(in Input) string
}

// Match runs rules in order and returns the first one that matches.
func Match(rules []Rule, in Input) (string, string, bool) {
	for _, r := range rules {
		if r.Match(in) {
			return r.Name, r.Respond(in), true
		}
	}
	return "", "", false
}

type greeting struct {
	phrase string
	reply  string
}

var greetings = []greeting{
	{"hello", "Hello! How can I assist you today?"},
	{"hi", "Hi there! What can I help you with?"},
	{"你好", "你好！有什么我可以帮助您的吗？"},
	{"您好", "您好！请问需要什么帮助？"},
}

var (
	selfPhrases      = []string{"who are you", "你是谁", "介绍一下你", "introduce yourself", "what can you do", "你能做什么"}
	codePhrases      = []string{"python", "javascript", "java", "code", "代码", "编程", "function", "函数"}
	timePhrases      = []string{"时间", "time", "几点", "日期", "date"}
	weatherPhrases   = []string{"天气", "weather", "温度", "temperature"}
	translatePhrases = []string{"翻译", "翻譯", "translate", "translation"}
	questionWords    = []string{"什么", "如何", "为什么", "怎么", "what", "how", "why"}
)

const selfDescriptionEN = `I am an AI assistant built on language model technology. I can:
• Answer all kinds of questions
• Help write and debug code
• Translate text
• Create content
• Solve math problems
• Offer advice and analysis

Just tell me whatever you need!`

const selfDescriptionZH = `我是一个 AI 助手，基于先进的语言模型技术。我可以：
• 回答各种问题
• 帮助编写和调试代码
• 进行文本翻译
• 创作内容
• 解决数学问题
• 提供专业建议和分析

有什么需要帮助的，请随时告诉我！`

type snippet struct {
	lang  string
	title string
	code  string
}

// javascript must be checked before java.
var snippets = []snippet{
	{"python", "Python", "```python\ndef hello_world():\n    print(\"Hello, World!\")\n\n# call the function\nhello_world()\n```"},
	{"javascript", "JavaScript", "```javascript\nfunction helloWorld() {\n    console.log(\"Hello, World!\");\n}\n\n// call the function\nhelloWorld();\n```"},
	{"java", "Java", "```java\npublic class HelloWorld {\n    public static void main(String[] args) {\n        System.out.println(\"Hello, World!\");\n    }\n}\n```"},
}

// DefaultRules returns the intent cascade in evaluation order. pick chooses
// one of n fallback paraphrases; it must return a value in [0, n).
func DefaultRules(pick func(n int) int) []Rule {
	return []Rule{
		{Name: "greeting", Match: isGreeting, Respond: respondGreeting},
		{Name: "self", Match: containsAny(selfPhrases), Respond: respondSelf},
		{Name: "code", Match: containsAny(codePhrases), Respond: respondCode},
		{Name: "time", Match: containsAny(timePhrases), Respond: respondTime},
		{Name: "weather", Match: containsAny(weatherPhrases), Respond: respondWeather},
		{Name: "translate", Match: containsAny(translatePhrases), Respond: respondTranslate},
		{Name: "question", Match: isQuestion, Respond: respondQuestion},
		{Name: "fallback", Match: func(Input) bool { return true }, Respond: fallback(pick)},
	}
}

func containsAny(phrases []string) func(Input) bool {
	return func(in Input) bool {
		return hasAny(in.Lower, phrases)
	}
}

func hasAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func isGreeting(in Input) bool {
	for _, g := range greetings {
		if strings.Contains(in.Lower, g.phrase) {
			return true
		}
	}
	return false
}

func respondGreeting(in Input) string {
	for _, g := range greetings {
		if strings.Contains(in.Lower, g.phrase) {
			return g.reply
		}
	}
	return greetings[0].reply
}

func respondSelf(in Input) string {
	if in.Chinese {
		return selfDescriptionZH
	}
	return selfDescriptionEN
}

func respondCode(in Input) string {
	for _, s := range snippets {
		if !strings.Contains(in.Lower, s.lang) {
			continue
		}
		if in.Chinese {
			return fmt.Sprintf("这是一个 %s 的示例：\n\n%s\n需要更多 %s 帮助吗？", s.title, s.code, s.title)
		}
		return fmt.Sprintf("Here is a %s example:\n\n%s\nNeed more help with %s?", s.title, s.code, s.title)
	}
	if in.Chinese {
		return "我可以帮助您编写各种编程语言的代码。请告诉我您需要什么语言和功能。"
	}
	return "I can help you write code in many programming languages. Tell me which language and what it should do."
}

func respondTime(in Input) string {
	stamp := in.Now.Format("2006-01-02 15:04:05")
	if in.Chinese {
		return "当前时间：" + stamp
	}
	return "Current time: " + stamp
}

func respondWeather(in Input) string {
	if in.Chinese {
		return "抱歉，我无法获取实时天气信息。建议您查看天气预报应用或网站。"
	}
	return "Sorry, I can't fetch live weather information. Please check a weather app or website."
}

func respondTranslate(in Input) string {
	if in.Chinese {
		return "请提供需要翻译的文本和目标语言。例如：'翻译 Hello 到中文'"
	}
	return "Please give me the text to translate and the target language, for example: 'translate Hello into Chinese'."
}

func isQuestion(in Input) bool {
	if strings.ContainsAny(in.Text, "?？") {
		return true
	}
	return hasAny(in.Lower, questionWords)
}

func respondQuestion(in Input) string {
	model := strings.ToLower(in.Model)
	switch {
	case strings.Contains(model, "claude"):
		if in.Chinese {
			return fmt.Sprintf("这是一个很好的问题。让我为您分析一下：\n\n关于 '%s'，我的理解是这涉及到一个需要深入思考的话题。基于我的知识，我可以提供以下见解...", in.Text)
		}
		return fmt.Sprintf("That's a great question. Let me think it through:\n\nAbout '%s', this touches on a topic that deserves careful thought. Based on what I know, here are some insights...", in.Text)
	case strings.Contains(model, "gpt"):
		if in.Chinese {
			return fmt.Sprintf("针对您的问题 '%s'，我来为您解答：\n\n这个问题涉及多个方面，让我逐一为您说明...", in.Text)
		}
		return fmt.Sprintf("Here is my answer to your question '%s':\n\nThere are several aspects to this, so let me go through them one by one...", in.Text)
	default:
		if in.Chinese {
			return fmt.Sprintf("关于您的问题：'%s'\n\n这是我的回答：根据相关知识和经验，我认为...", in.Text)
		}
		return fmt.Sprintf("About your question: '%s'\n\nHere is my answer: based on what I know, I think...", in.Text)
	}
}

func fallback(pick func(n int) int) func(Input) string {
	return func(in Input) string {
		var options []string
		var closing string
		if in.Chinese {
			options = []string{
				fmt.Sprintf("我理解您的需求：'%s'。让我来为您提供帮助。", in.Text),
				fmt.Sprintf("关于 '%s'，这是一个有趣的话题。", in.Text),
				fmt.Sprintf("您提到了 '%s'，我来为您详细说明。", in.Text),
			}
			closing = "\n\n如果您有更具体的问题，请详细描述，我会提供更准确的帮助。"
		} else {
			options = []string{
				fmt.Sprintf("I understand what you need: '%s'. Let me help you with that.", in.Text),
				fmt.Sprintf("'%s' is an interesting topic.", in.Text),
				fmt.Sprintf("You mentioned '%s', let me go into more detail.", in.Text),
			}
			closing = "\n\nIf you have a more specific question, describe it in detail and I can give you a more precise answer."
		}
		i := 0
		if pick != nil {
			i = pick(len(options))
		}
		if i < 0 || i >= len(options) {
			i = 0
		}
		return options[i] + closing
	}
}
