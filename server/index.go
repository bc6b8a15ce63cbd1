package server

// indexHTML is the minimal browser client: it posts tasks, renders the SSE
// event stream, and answers approval prompts via /api/approve.
const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>agentic</title>
<style>
body { font-family: monospace; margin: 2rem; max-width: 60rem; }
#log { white-space: pre-wrap; border: 1px solid #ccc; padding: 1rem; min-height: 20rem; }
.event { margin-bottom: .25rem; }
.tool { color: #0a5; }
.approval { color: #c60; }
.final { font-weight: bold; }
</style>
</head>
<body>
<h1>agentic</h1>
<form id="f">
<input id="q" size="80" placeholder="describe a task">
<button>run</button>
<label><input type="checkbox" id="auto"> auto-approve</label>
</form>
<div id="log"></div>
<script>
const log = document.getElementById('log');
function line(cls, text) {
  const d = document.createElement('div');
  d.className = 'event ' + cls;
  d.textContent = text;
  log.appendChild(d);
}
document.getElementById('auto').addEventListener('change', async (e) => {
  await fetch('/api/auto_approve', {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({auto_approve: e.target.checked})});
});
document.getElementById('f').addEventListener('submit', (e) => {
  e.preventDefault();
  log.textContent = '';
  const q = document.getElementById('q').value;
  const es = new EventSource('/api/chat_stream?q=' + encodeURIComponent(q));
  es.addEventListener('assistant_delta', (ev) => line('', JSON.parse(ev.data).delta));
  es.addEventListener('reasoning_delta', () => {});
  es.addEventListener('tool_call', (ev) => { const d = JSON.parse(ev.data); line('tool', 'tool: ' + d.tool + ' ' + JSON.stringify(d.args)); });
  es.addEventListener('tool_result', (ev) => { const d = JSON.parse(ev.data); line('tool', 'result[' + d.id + ']: ' + JSON.stringify(d.result).slice(0, 400)); });
  es.addEventListener('approval', async (ev) => {
    const d = JSON.parse(ev.data);
    line('approval', 'approval required: ' + d.tool + ' (' + d.reason + ')');
    const ok = confirm('Approve ' + d.tool + '?\n' + JSON.stringify(d.args));
    const resp = await fetch('/api/approve', {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({token: d.token, approve: ok})});
    const body = await resp.json();
    (body.events || []).forEach((e2) => line('', e2.event + ': ' + JSON.stringify(e2.data).slice(0, 400)));
  });
  es.addEventListener('final', (ev) => line('final', JSON.parse(ev.data).content));
  es.addEventListener('done', () => es.close());
});
</script>
</body>
</html>`
