package llm

// DefaultPersonaPrompt describes the reader the scorer evaluates
// articles for. It is used until a custom persona is saved through the
// settings API, and as the cold start text embedded into the interest
// profile before the first like.
const DefaultPersonaPrompt = `You are curating articles for a curious software engineer who enjoys
deep technical writing, systems design, programming languages and the
occasional well-argued essay on science or society. They dislike
clickbait, press releases, thin listicles and rewritten agency news.`

const scoringInstructions = `Evaluate the article below for this reader.

Respond with a single JSON object and nothing else, using exactly these fields:
{"score": <number from 0 to 10>, "rationale": "<one or two sentences>", "summary": "<two or three sentence summary of the article>"}

Score 0-3 for content the reader would consider noise, 4-6 for marginal
material, 7-10 for articles worth their time.`
