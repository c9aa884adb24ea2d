package gemini

// replyPromptTemplate frames a single incoming message for the model. The
// framing asks for a short, friendly, informal answer so replies read like a
// regular person, not an AI announcement. Expects one parameter: the raw
// message body.
const replyPromptTemplate = `इस संदेश का जवाब एक छोटे, दोस्ताना, देसी और सहायक अंदाज़ में दें। इसे ऐसा लगना चाहिए जैसे कोई आम इंसान जवाब दे रहा हो। संदेश: "%s"`
