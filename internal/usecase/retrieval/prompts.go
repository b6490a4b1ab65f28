package retrieval

// Prompt templates for the retrieval pipeline. Placeholders are filled with
// fmt.Sprintf; the wording itself is opaque to the surrounding code.

const rewriteQueryPromptTemplate = `You are serving as an AI tutor on a university learning platform.
Here are the last %d student messages in the chat history:
%s
The student has sent the following message:
	%s
If there is a reference to a previous message, please rewrite the query by
removing any reference to previous messages and replacing them with the
details needed. Ensure the context and semantic meaning are preserved.
Translate the rewritten message into %s if it's not already in %s.
ANSWER ONLY WITH THE REWRITTEN MESSAGE. DO NOT ADD ANY ADDITIONAL INFORMATION.`

const hypotheticalAnswerPromptTemplate = `You are an AI tutor operating on a university learning platform.
A student has sent a query in the context of the course %s. The query is: '%s'.
Please provide a response in %s. Craft your response to closely reflect the
style and content of university lecture materials.`

const rerankPromptTemplate = `You will be given a student question, an excerpt of the conversation so far
and a numbered list of candidate items. Select the items that are most
relevant to answering the question, ordered from most to least relevant.

Conversation excerpt:
%s

Student question:
	%s

Candidate items:
%s

Respond with a JSON object of the form {"selected_indices": ["<index>", ...]}
using the numbers from the list above. Do not include anything else.`
