package games

// Everyone with the channel link shares one stream of trivia clues
// Any player can request a clue; the clue (category, dollar value, air date, question) is shown to all
// Players race to respond in question form ("what is ...", "who's ...") before the timer runs out
// The first correct response wins the clue; incorrect responses are called out but don't end the round
// A response using only (some of) the right words gets a "be more specific" nudge instead of a rejection
// "skip clue" gives up on the current clue; the answer is revealed when time expires

// Display formats:
// Clue card with category/value header and the question body
// Shared feed of attempts and judgements below the card

// Implementation details:
// - Use websockets to deliver clues and judgements to every connected player
// - Identify players by cookie on first connection
// - Only one clue may be live per channel at a time; requesting another while
//   one is live is refused with its own message

// How to play
// - Each player joins, is assigned a cookie, and prompted for their name
// - Anyone presses "Clue" (or enters a clue id) to start a round
// - Respond in the answer box; only question-phrased messages count as attempts
// - After the round ends, a "next clue" button offers another round
