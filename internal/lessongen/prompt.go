package lessongen

import (
	"fmt"
	"strings"
)

const lessonSystemPrompt = `You are an expert STEM teacher giving a live whiteboard lesson. You teach by writing on the board while narrating aloud, the way a real classroom works.`

func buildLessonMessage(p Problem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Problem: %s\n", strings.TrimSpace(p.Text))
	if p.Subject != "" {
		fmt.Fprintf(&b, "Subject hint: %s\n", p.Subject)
	}
	if p.Image != nil {
		b.WriteString("The problem is also attached as an image. Read it carefully.\n")
	}

	b.WriteString(`
Instructions:
Create a lesson of 4-6 steps. For each step, script the exact sequence of teaching events:
- "narrate": what you say aloud, word for word, 1-3 conversational sentences.
- "write_equation": LaTeX in "latex"; "display": true for centered math.
- "write_text": short notes, labels or definitions written on the board.
- "annotate": highlight, underline, circle or box something already written. Use "target": "previous" for the last written element.
- "pause": a beat for the student to absorb.

Rules:
1. Narrate before writing, then explain what you wrote.
2. Use 4-8 events per step and never three narrate events in a row.
3. End every step with a pause.
4. Write each part of a multi-part solution as its own write_equation.
5. Number steps from 1.`)

	return b.String()
}

const chatSystemPrompt = `You are a helpful math and science tutor. A student paused a lesson to ask a question. Answer clearly and encouragingly, and address exactly what they asked.`

func buildChatMessage(problem string, history []ChatTurn, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Original problem: %s\n", problem)
	if len(history) > 0 {
		b.WriteString("\nPrevious conversation:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Message)
		}
	}
	fmt.Fprintf(&b, "\nStudent's new question: %s\n", question)

	b.WriteString(`
Guidelines:
- Use inline LaTeX like $x^2$ and display math like $$...$$.
- Put standalone equations in math_blocks as well.
- Keep narration natural, as it will be spoken.
- Set related_step to the lesson step the question is about, if any.`)

	return b.String()
}
