package web

import "html/template"

type statusData struct {
	OwnerOnline   bool
	AssistantMode bool
	Degraded      bool
}

type pairData struct {
	State     string
	QRDataURI template.URL
}

var statusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="hi">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>WhatsApp पर्सनल असिस्टेंट</title>
    <style>
        body { font-family: sans-serif; margin: 40px auto; max-width: 480px; text-align: center; color: #333; }
        .on { color: #16a34a; font-weight: bold; }
        .off { color: #dc2626; font-weight: bold; }
        a.btn { display: block; margin: 12px 0; padding: 12px; border-radius: 8px; color: #fff; text-decoration: none; }
        .blue { background: #3b82f6; }
        .purple { background: #8b5cf6; }
        .note { font-size: 12px; color: #777; margin-top: 16px; }
    </style>
</head>
<body>
    <h1>WhatsApp बॉट तैयार है!</h1>
    <p>आपकी वर्तमान स्थिति:
        <span class="{{if .OwnerOnline}}on{{else}}off{{end}}">{{if .OwnerOnline}}ऑनलाइन{{else}}ऑफ़लाइन{{end}}</span>
    </p>
    <p>पर्सनल असिस्टेंट मोड:
        <span class="{{if .AssistantMode}}on{{else}}off{{end}}">{{if .AssistantMode}}चालू{{else}}बंद{{end}}</span>
    </p>
    {{if .Degraded}}<p class="off">चेतावनी: स्थिति अस्थायी रूप से केवल मेमोरी में सहेजी जा रही है।</p>{{end}}
    <a class="btn blue" href="/toggle_owner_status">मालिक की स्थिति टॉगल करें (अब आप {{if .OwnerOnline}}ऑफ़लाइन{{else}}ऑनलाइन{{end}} होंगे)</a>
    <a class="btn purple" href="/toggle_personal_assistant">पर्सनल असिस्टेंट मोड टॉगल करें (अब {{if .AssistantMode}}बंद{{else}}चालू{{end}} होगा)</a>
    <p class="note">बॉट अन्य यूज़र्स को तभी जवाब देगा जब आपकी स्थिति 'ऑफ़लाइन' हो।</p>
    <p class="note">आप खुद को 'Online true', 'Online false', 'Assistant on', या 'Assistant off' मैसेज भेजकर भी स्थिति बदल सकते हैं।</p>
</body>
</html>
`))

var pairTmpl = template.Must(template.New("pair").Parse(`<!DOCTYPE html>
<html lang="hi">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>QR कोड स्कैन करें</title>
    <style>
        body { font-family: sans-serif; margin: 40px auto; max-width: 480px; text-align: center; color: #333; }
        img { border: 2px solid #000; padding: 12px; border-radius: 8px; }
        .note { font-size: 12px; color: #777; margin-top: 16px; }
    </style>
</head>
<body>
    <h1>QR कोड स्कैन करें</h1>
    <p>कृपया अपने फ़ोन से WhatsApp खोलें, <b>Linked Devices</b> पर जाएं, और इस QR कोड को स्कैन करें।</p>
    {{if .QRDataURI}}<img src="{{.QRDataURI}}" alt="QR Code"/>{{else}}<p>QR code is not generated yet. Please wait...</p>{{end}}
    <p class="note">कनेक्शन स्थिति: {{.State}}</p>
    <p class="note">यदि QR कोड लोड नहीं हो रहा है, तो कृपया कुछ मिनट प्रतीक्षा करें और पेज रीफ़्रेश करें।</p>
</body>
</html>
`))
