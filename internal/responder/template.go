package responder

import (
	"fmt"
	"strings"
)

func (r *Responder) template(in Input) string {
	capability := ""
	if r.opts.Capabilities != nil {
		capability = r.opts.Capabilities.Capability(in.Model)
	}
	if capability == "" {
		capability = in.Model + " advanced AI capabilities"
	}
	return fmt.Sprintf("[%s] %s. %s", in.Model, strings.TrimRight(capability, ".。"), familyBlurb(in.Model, in.Text))
}

func familyBlurb(model, text string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "gpt-5"):
		head := fmt.Sprintf("Regarding your question: '%s', ", text)
		switch {
		case strings.Contains(m, "codex"):
			return head + "as a dedicated coding model I can generate, optimize, debug and refactor code in more than 100 languages."
		case strings.Contains(m, "nano"):
			return head + "as an ultra-light model I answer quickly with minimal resources, well suited to edge deployments."
		case strings.Contains(m, "mini"):
			return head + "I give fast, efficient answers while keeping quality high."
		default:
			return head + "built on the GPT-5 architecture I can follow complex context and provide in-depth analysis."
		}
	case strings.Contains(m, "claude"):
		head := fmt.Sprintf("About what you mentioned: '%s', ", text)
		switch {
		case strings.Contains(m, "4.1"):
			return head + "Claude 4.1 supports a 200K token context and can analyse whole books or large codebases."
		case strings.Contains(m, "4"):
			return head + "Claude 4 brings a step change in understanding and excels at reasoning and creative tasks."
		case strings.Contains(m, "haiku"):
			return head + "I answer concisely and focus on the essentials."
		default:
			return head + "the Claude family is known for deep understanding and responsible AI, so expect a thoughtful analysis."
		}
	case strings.Contains(m, "gemini"):
		head := fmt.Sprintf("Handling your request: '%s'. ", text)
		if strings.Contains(m, "flash") {
			return head + "Gemini Flash responds at millisecond latency even on complex tasks."
		}
		return head + "Gemini Pro accepts multimodal input and understands text, images, audio and video together."
	case strings.Contains(m, "deepseek"):
		head := fmt.Sprintf("Analysing your question: '%s'. ", text)
		if strings.Contains(m, "r1") {
			return head + "DeepSeek R1 focuses on deep research and academic analysis."
		}
		return head + "DeepSeek V3.1 leads in Chinese understanding and generation."
	case strings.Contains(m, "grok"):
		head := fmt.Sprintf("Good question: '%s'! ", text)
		switch {
		case strings.Contains(m, "4"):
			return head + "Grok-4 integrates real-time information streams to bring you the latest insights."
		case strings.Contains(m, "mini"):
			return head + "as the lightweight Grok I keep the humour and answer fast!"
		default:
			return head + "the Grok family is known for its humour and creativity, so let's have some fun solving this!"
		}
	case strings.Contains(m, "kimi"):
		return fmt.Sprintf("Understanding your need: '%s'. Kimi K2 handles extremely long texts and is ideal for large documents.", text)
	case strings.Contains(m, "o3"):
		return fmt.Sprintf("Analysis: '%s'. O3 is a dedicated math and logic reasoning model.", text)
	case strings.Contains(m, "o4"):
		return fmt.Sprintf("Analysis: '%s'. O4-mini delivers fast reasoning for quick decisions.", text)
	case strings.Contains(m, "code-supernova"):
		return fmt.Sprintf("Analysing your coding request: '%s'. Code Supernova keeps a one million token context to review whole projects at once.", text)
	default:
		return fmt.Sprintf("Processing your request: '%s'. As an advanced AI model I will give you a high quality answer.", text)
	}
}
