// In file: internal/assistant/prompts.go
package assistant

import (
	"fmt"

	"github.com/dileep-u-k/weather-assistant/internal/llm"
)

// Bump version.ComponentVersions.Prompts whenever the text below changes.
const (
	rewriteSystemPrompt = "You are a language assistant whose task is to transform a user's query about weather " +
		"into several questions in the given format if necessary, or into one question in the given format."

	splitSystemPrompt = "You are a language parser whose task is to separate a query, which consists of several " +
		"questions about weather, into a list of unique corresponding questions."

	parametersSystemPrompt = "You are an accurate parameter parser who parses the values of the necessary " +
		"parameters from a given query."

	summarySystemPrompt = "You are a weather assistant who summarizes the following weather data in a user-friendly format."
)

func rewritePrompt(query string, day Day) llm.Prompt {
	return llm.Prompt{
		System: rewriteSystemPrompt,
		User: fmt.Sprintf("Rephrase the following query so that it consists of one or more questions "+
			"in the format 'What is the weather in <location> on <date>?', "+
			"where location is the city or country where to check the weather, "+
			"and date is the date in format YYYY-MM-DD when to check the weather. "+
			"Resolve relative dates such as 'tomorrow' or 'next Friday' to exact dates, and ask one question "+
			"per location and date mentioned.\n"+
			"Query: %s\n"+
			"Consider that today is %s, and that the day of the week is %s.",
			query, day.Date, day.Weekday),
	}
}

func splitPrompt(rewritten string) llm.Prompt {
	return llm.Prompt{
		System: splitSystemPrompt,
		User: fmt.Sprintf("Retrieve the sub-queries from the given query for further usage. "+
			"Record every question with the %s function, keeping their order.\n"+
			"Query: %s\n", subQueriesFunction.Name, rewritten),
	}
}

func parametersPrompt(question string, day Day) llm.Prompt {
	return llm.Prompt{
		System: parametersSystemPrompt,
		User: fmt.Sprintf("Retrieve the parameters from the question for fetching weather data. "+
			"Record them with the %s function.\n"+
			"Query: %s\n"+
			"Also remember that today's date is %s, and that the current day of the week is %s.",
			parametersFunction.Name, question, day.Date, day.Weekday),
	}
}

func summaryPrompt(query, report string, day Day) llm.Prompt {
	return llm.Prompt{
		System: summarySystemPrompt,
		User: fmt.Sprintf("Provide a concise and friendly summary including only the important information "+
			"for the user's query and the retrieved weather data.\n"+
			"Query: %s\n"+
			"Weather data: %s\n"+
			"Also remember that today's date is %s, and that the current day of the week is %s.",
			query, report, day.Date, day.Weekday),
	}
}
