package gemini

// DescribeImageInstruction is the fixed instruction sent alongside image
// bytes when the user posts a photo.
const DescribeImageInstruction = "Describe this image briefly."

// SearchSummaryPrompt is the template used to summarize web search results.
// The format string expects the query and the rendered results block.
const SearchSummaryPrompt = `Summarize the following web search results for the query "%s" in a few sentences. Focus on what the results collectively say; do not invent information that is not in them.

Results:
%s`
