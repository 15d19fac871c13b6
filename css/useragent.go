package css

// userAgentCSS holds the default rules applied before author styles. Tags
// not listed are block boxes with no margins.
const userAgentCSS = `
head, script, style, title, meta, link, template, noscript { display: none }
body { margin: 8px }
p { margin-top: 16px; margin-bottom: 16px }
h1 { margin-top: 21px; margin-bottom: 21px; height: 37px }
h2 { margin-top: 20px; margin-bottom: 20px; height: 28px }
h3 { margin-top: 19px; margin-bottom: 19px; height: 22px }
ul, ol { margin-top: 16px; margin-bottom: 16px; padding-left: 40px }
hr { margin-top: 8px; margin-bottom: 8px; border-width: 1px }
`

var defaultUserAgentSheet = ParseStylesheet(userAgentCSS)
